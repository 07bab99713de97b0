package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be positive")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic: %q is not an http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateSpeech() error {
	s := c.Speech
	if s.RetryInitialSeconds <= 0 {
		return errors.New("speech.retry_initial_seconds must be positive")
	}
	if s.RetryMaxSeconds <= 0 {
		return errors.New("speech.retry_max_seconds must be positive")
	}
	if s.RetryMaxSeconds < s.RetryInitialSeconds {
		return fmt.Errorf("speech.retry_max_seconds (%v) must be >= speech.retry_initial_seconds (%v)", s.RetryMaxSeconds, s.RetryInitialSeconds)
	}
	if s.RetryMultiplier < 1 {
		return errors.New("speech.retry_multiplier must be >= 1")
	}
	if s.RetryDeadlineSeconds <= 0 {
		return errors.New("speech.retry_deadline_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
