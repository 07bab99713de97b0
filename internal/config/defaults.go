package config

const (
	defaultConfigPath           = "~/.config/podscribe/config.toml"
	defaultWorkDir              = "~/.local/share/podscribe/work"
	defaultLogDir               = "~/.local/share/podscribe/logs"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultLanguage             = "en-US"
	defaultRetryInitialSeconds  = 5
	defaultRetryMaxSeconds      = 60
	defaultRetryMultiplier      = 2
	defaultRetryDeadlineSeconds = 600
	defaultNtfyTimeoutSeconds   = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	credentialsEnv              = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Speech: Speech{
			DefaultLanguage:      defaultLanguage,
			RetryInitialSeconds:  defaultRetryInitialSeconds,
			RetryMaxSeconds:      defaultRetryMaxSeconds,
			RetryMultiplier:      defaultRetryMultiplier,
			RetryDeadlineSeconds: defaultRetryDeadlineSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
