package config

import (
	"fmt"
	"os"
	"strings"

	"podscribe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMedia()
	if err := c.normalizeSpeech(); err != nil {
		return err
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeSpeech() error {
	c.Speech.CredentialsFile = strings.TrimSpace(c.Speech.CredentialsFile)
	if c.Speech.CredentialsFile == "" {
		if value, ok := os.LookupEnv(credentialsEnv); ok {
			c.Speech.CredentialsFile = strings.TrimSpace(value)
		}
	}
	if c.Speech.CredentialsFile != "" {
		expanded, err := expandPath(c.Speech.CredentialsFile)
		if err != nil {
			return fmt.Errorf("speech.credentials_file: %w", err)
		}
		c.Speech.CredentialsFile = expanded
	}
	c.Speech.Endpoint = strings.TrimSpace(c.Speech.Endpoint)

	c.Speech.DefaultLanguage = strings.TrimSpace(c.Speech.DefaultLanguage)
	if c.Speech.DefaultLanguage == "" {
		c.Speech.DefaultLanguage = defaultLanguage
	}
	canonical, err := language.Canonical(c.Speech.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("speech.default_language: %w", err)
	}
	c.Speech.DefaultLanguage = canonical
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
