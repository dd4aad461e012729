package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
)

// Reloader swaps in a newly published model when its version changed
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// ReloadHook observes the outcome of every reload attempt
type ReloadHook func(changed bool, err error)

// ArtifactReloadWorker polls the artifact store and hot swaps the served model.
// Trigger requests an immediate check, e.g. on SIGHUP.
//
// Architecture assumptions:
// - Each server instance polls on its own; instances may briefly serve different versions
type ArtifactReloadWorker struct {
	reloader  Reloader
	interval  time.Duration
	hook      ReloadHook
	triggerCh chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
}

type Option func(*ArtifactReloadWorker)

func WithReloadHook(hook ReloadHook) Option {
	return func(w *ArtifactReloadWorker) {
		w.hook = hook
	}
}

// NewArtifactReloadWorker creates a worker. A non-positive interval disables polling;
// Trigger still works.
func NewArtifactReloadWorker(reloader Reloader, interval time.Duration, opts ...Option) *ArtifactReloadWorker {
	w := &ArtifactReloadWorker{
		reloader:  reloader,
		interval:  interval,
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background reload loop. It does not block.
func (w *ArtifactReloadWorker) Start(ctx context.Context) error {
	logging.Default().Info("Artifact reload worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *ArtifactReloadWorker) Stop() {
	logging.Default().Info("Artifact reload worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Artifact reload worker stopped")
}

// Trigger requests a reload check. Requests arriving while one is pending are merged.
func (w *ArtifactReloadWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

func (w *ArtifactReloadWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			w.reload(ctx, "interval")

		case <-w.triggerCh:
			w.reload(ctx, "trigger")

		case <-w.stopCh:
			logging.Default().Info("Artifact reload worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Artifact reload worker context cancelled")
			return
		}
	}
}

func (w *ArtifactReloadWorker) reload(ctx context.Context, reason string) {
	changed, err := w.reloader.Reload(ctx)
	if w.hook != nil {
		w.hook(changed, err)
	}

	if err != nil {
		// Log error and keep serving the current model
		logging.Default().Error("Artifact reload failed (will retry next interval)",
			"reason", reason,
			"error", err.Error())
		return
	}
	if changed {
		logging.Default().Info("Artifact reloaded", "reason", reason)
	}
}
