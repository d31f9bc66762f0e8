package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingReloader struct {
	calls atomic.Int32
	err   error
}

func (r *countingReloader) Reload(ctx context.Context) (*dashboard.ReloadResult, error) {
	n := r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &dashboard.ReloadResult{Fingerprint: "fp", Changed: n == 1, Orders: 3}, nil
}

func TestNewRefreshTrigger_RejectsNonPositiveInterval(t *testing.T) {
	_, err := NewRefreshTrigger(RefreshTriggerConfig{}, &countingReloader{}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRefreshTrigger_ReloadsPeriodically(t *testing.T) {
	r := &countingReloader{}
	trigger, err := NewRefreshTrigger(RefreshTriggerConfig{Interval: 10 * time.Millisecond}, r, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, trigger.Start(context.Background()))
	assert.ErrorIs(t, trigger.Start(context.Background()), ErrAlreadyRunning)

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop(context.Background()))

	stopped := r.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, r.calls.Load())

	runs, failures := trigger.Stats()
	assert.Equal(t, int(stopped), runs)
	assert.Zero(t, failures)
}

func TestRefreshTrigger_CountsFailures(t *testing.T) {
	r := &countingReloader{err: errors.New("source unreachable")}
	trigger, err := NewRefreshTrigger(RefreshTriggerConfig{Interval: 10 * time.Millisecond}, r, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, trigger.Start(context.Background()))
	assert.Eventually(t, func() bool {
		_, failures := trigger.Stats()
		return failures >= 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop(context.Background()))

	runs, failures := trigger.Stats()
	assert.Equal(t, runs, failures)
}

func TestRefreshTrigger_StopWhenIdle(t *testing.T) {
	trigger, err := NewRefreshTrigger(RefreshTriggerConfig{Interval: time.Hour}, &countingReloader{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.NoError(t, trigger.Stop(context.Background()))
}
