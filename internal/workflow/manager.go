package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofrs/flock"

	"podscribe/internal/config"
	"podscribe/internal/jobstore"
	"podscribe/internal/logging"
	"podscribe/internal/media/probe"
	"podscribe/internal/media/transcode"
	"podscribe/internal/notifications"
	"podscribe/internal/speech"
)

// ErrPollInProgress indicates another process holds the poll lock.
var ErrPollInProgress = errors.New("another poll pass is already running")

// MediaProber is the subset of probe.Prober the manager depends on.
type MediaProber interface {
	Probe(ctx context.Context, path string) (probe.MediaFileInfo, error)
}

// Manager coordinates preparation, submission and polling of transcription jobs.
type Manager struct {
	cfg        *config.Config
	store      *jobstore.Store
	prober     MediaProber
	transcoder *transcode.Transcoder
	client     *speech.Client
	notifier   notifications.Service
	lock       *flock.Flock
	logger     *slog.Logger
}

// Dependencies bundles the collaborators a Manager drives. Client may be nil
// for commands that never reach the remote service. A nil Notifier is built
// from the config.
type Dependencies struct {
	Store      *jobstore.Store
	Prober     MediaProber
	Transcoder *transcode.Transcoder
	Client     *speech.Client
	Notifier   notifications.Service
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, deps Dependencies, logger *slog.Logger) *Manager {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:        cfg,
		store:      deps.Store,
		prober:     deps.Prober,
		transcoder: deps.Transcoder,
		client:     deps.Client,
		notifier:   notifier,
		lock:       flock.New(cfg.PollLockPath()),
		logger:     logging.NewComponentLogger(logger, "workflow"),
	}
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		logging.WithContext(ctx, m.logger).Warn("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}
