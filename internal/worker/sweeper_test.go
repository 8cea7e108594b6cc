package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"campus-assist/internal/domain"
)

type stubSessionRepo struct {
	domain.SessionRepository

	deleteFn func(ctx context.Context, cutoff time.Time) (int64, error)
	calls    atomic.Int64
}

func (s *stubSessionRepo) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.calls.Add(1)
	return s.deleteFn(ctx, cutoff)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweep_UsesIdleCutoff(t *testing.T) {
	var gotCutoff time.Time
	repo := &stubSessionRepo{deleteFn: func(ctx context.Context, cutoff time.Time) (int64, error) {
		gotCutoff = cutoff
		return 3, nil
	}}

	sweeper := NewSessionSweeper(repo, 30*time.Minute, time.Minute, testLogger())
	before := time.Now().Add(-30 * time.Minute)
	sweeper.sweep()
	after := time.Now().Add(-30 * time.Minute)

	assert.False(t, gotCutoff.Before(before))
	assert.False(t, gotCutoff.After(after))
	assert.Zero(t, sweeper.backoff)
}

func TestSweep_BackoffDoublesAndCaps(t *testing.T) {
	repo := &stubSessionRepo{deleteFn: func(ctx context.Context, cutoff time.Time) (int64, error) {
		return 0, assert.AnError
	}}
	sweeper := NewSessionSweeper(repo, 30*time.Minute, time.Minute, testLogger())

	sweeper.sweep()
	assert.Equal(t, initialBackoff, sweeper.backoff)

	sweeper.sweep()
	assert.Equal(t, 2*initialBackoff, sweeper.backoff)

	for i := 0; i < 10; i++ {
		sweeper.sweep()
	}
	assert.Equal(t, maxBackoff, sweeper.backoff)
}

func TestSweep_BackoffResetsAfterSuccess(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	repo := &stubSessionRepo{deleteFn: func(ctx context.Context, cutoff time.Time) (int64, error) {
		if fail.Load() {
			return 0, assert.AnError
		}
		return 1, nil
	}}
	sweeper := NewSessionSweeper(repo, 30*time.Minute, time.Minute, testLogger())

	sweeper.sweep()
	assert.Equal(t, initialBackoff, sweeper.backoff)

	fail.Store(false)
	sweeper.sweep()
	assert.Zero(t, sweeper.backoff)
}

func TestSweeper_StartStop(t *testing.T) {
	repo := &stubSessionRepo{deleteFn: func(ctx context.Context, cutoff time.Time) (int64, error) {
		return 0, nil
	}}
	sweeper := NewSessionSweeper(repo, 30*time.Minute, 10*time.Millisecond, testLogger())

	sweeper.Start()
	assert.Eventually(t, func() bool {
		return repo.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	sweeper.Stop()
	// Let any tick already in flight drain before sampling.
	time.Sleep(30 * time.Millisecond)
	settled := repo.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, repo.calls.Load(), "no sweeps after Stop")
}

func TestNewSessionSweeper_DefaultInterval(t *testing.T) {
	repo := &stubSessionRepo{}
	sweeper := NewSessionSweeper(repo, 30*time.Minute, 0, testLogger())
	assert.Equal(t, defaultSweepInterval, sweeper.interval)
}
