package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"podscribe/internal/config"
	"podscribe/internal/jobstore"
	"podscribe/internal/logging"
	"podscribe/internal/media/probe"
	"podscribe/internal/media/transcode"
	"podscribe/internal/preflight"
	"podscribe/internal/services/googlespeech"
	"podscribe/internal/speech"
	"podscribe/internal/workflow"
)

// recognizerFactory dials the remote recognition service. The returned
// closer releases the connection.
type recognizerFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (speech.Recognizer, func() error, error)

type commandContext struct {
	configFlag   string
	logLevelFlag string

	newRecognizer recognizerFactory

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logger  *slog.Logger
	store   *jobstore.Store
	closers []func() error
}

func newCommandContext() *commandContext {
	return &commandContext{newRecognizer: dialGoogleSpeech}
}

func dialGoogleSpeech(ctx context.Context, cfg *config.Config, logger *slog.Logger) (speech.Recognizer, func() error, error) {
	if check := preflight.CheckCredentials(cfg.Speech.CredentialsFile); !check.Passed {
		return nil, nil, errors.New("speech credentials: " + check.Detail)
	}
	retry := cfg.SpeechRetry()
	rec, err := googlespeech.New(ctx, googlespeech.Config{
		CredentialsFile: cfg.Speech.CredentialsFile,
		Endpoint:        cfg.Speech.Endpoint,
		Retry: speech.RetryPolicy{
			Initial:    retry.Initial,
			Max:        retry.Max,
			Multiplier: retry.Multiplier,
			Deadline:   retry.Deadline,
		},
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return rec, rec.Close, nil
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.logLevelFlag); level != "" {
			cfg.Logging.Level = level
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

func (c *commandContext) ensureStore() (*jobstore.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := jobstore.Open(cfg)
	if err != nil {
		return nil, err
	}
	c.store = store
	c.closers = append(c.closers, store.Close)
	return store, nil
}

func (c *commandContext) prober() (*probe.Prober, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return probe.NewProber(cfg.Media.FFprobeBinary, logger), nil
}

func (c *commandContext) transcoder() (*transcode.Transcoder, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	prober, err := c.prober()
	if err != nil {
		return nil, err
	}
	return transcode.New(cfg.Media.FFmpegBinary, prober, c.logger), nil
}

func (c *commandContext) speechClient(ctx context.Context) (*speech.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	rec, closer, err := c.newRecognizer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
	return speech.NewClient(rec, logger)
}

// manager builds a workflow manager. withClient controls whether the remote
// service is dialed.
func (c *commandContext) manager(ctx context.Context, withClient bool) (*workflow.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	prober, err := c.prober()
	if err != nil {
		return nil, err
	}
	transcoder, err := c.transcoder()
	if err != nil {
		return nil, err
	}
	deps := workflow.Dependencies{Store: store, Prober: prober, Transcoder: transcoder}
	if withClient {
		client, err := c.speechClient(ctx)
		if err != nil {
			return nil, err
		}
		deps.Client = client
	}
	return workflow.NewManager(cfg, deps, c.logger), nil
}

func (c *commandContext) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	c.store = nil
	return errors.Join(errs...)
}
