// Package scheduler runs background dataset refreshes
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/olist/dashboard/internal/application/dashboard"
	"go.uber.org/zap"
)

// Reloader re-fingerprints the dataset and rebuilds the snapshot on change
type Reloader interface {
	Reload(ctx context.Context) (*dashboard.ReloadResult, error)
}

// RefreshTriggerConfig holds configuration for the refresh trigger
type RefreshTriggerConfig struct {
	// Interval between fingerprint checks
	Interval time.Duration

	// Timeout bounds a single reload; zero means Interval
	Timeout time.Duration
}

// RefreshTrigger periodically reloads the dashboard dataset so a changed
// source is picked up without a manual POST /dashboard/reload
type RefreshTrigger struct {
	config   RefreshTriggerConfig
	reloader Reloader
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	runs      int
	failures  int
}

// NewRefreshTrigger creates a new refresh trigger
func NewRefreshTrigger(config RefreshTriggerConfig, reloader Reloader, logger *zap.Logger) (*RefreshTrigger, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, config.Interval)
	}
	if config.Timeout <= 0 {
		config.Timeout = config.Interval
	}
	return &RefreshTrigger{
		config:   config,
		reloader: reloader,
		logger:   logger.Named("refresh"),
	}, nil
}

// Start starts the refresh loop
func (t *RefreshTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return ErrAlreadyRunning
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Refresh trigger started", zap.Duration("interval", t.config.Interval))
	return nil
}

// Stop stops the refresh loop and waits for an in-flight reload
func (t *RefreshTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Refresh trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *RefreshTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.refresh(ctx)
		}
	}
}

// refresh runs one reload. Failures are logged; the service keeps the
// error as its status until the next successful reload.
func (t *RefreshTrigger) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	res, err := t.reloader.Reload(ctx)

	t.mu.Lock()
	t.runs++
	if err != nil {
		t.failures++
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Error("Scheduled reload failed", zap.Error(err))
		return
	}
	if res.Changed {
		t.logger.Info("Dataset changed, snapshot rebuilt",
			zap.String("fingerprint", res.Fingerprint),
			zap.Int("orders", res.Orders),
			zap.Duration("duration", res.Duration),
		)
		return
	}
	t.logger.Debug("Dataset unchanged", zap.String("fingerprint", res.Fingerprint))
}

// Stats reports how many scheduled reloads ran and how many failed
func (t *RefreshTrigger) Stats() (runs, failures int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs, t.failures
}
