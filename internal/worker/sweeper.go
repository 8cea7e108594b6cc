package worker

import (
	"context"
	"log/slog"
	"time"

	"campus-assist/internal/domain"
)

const (
	defaultSweepInterval = 5 * time.Minute
	sweepTimeout         = 30 * time.Second
	initialBackoff       = 1 * time.Minute
	maxBackoff           = 30 * time.Minute
)

// SessionSweeper periodically deletes session memory rows that have been
// idle past the TTL. Failures back off exponentially instead of hammering
// a struggling database.
type SessionSweeper struct {
	sessions domain.SessionRepository
	idleTTL  time.Duration
	interval time.Duration
	logger   *slog.Logger
	stopChan chan struct{}
	backoff  time.Duration
}

func NewSessionSweeper(
	sessions domain.SessionRepository,
	idleTTL time.Duration,
	interval time.Duration,
	logger *slog.Logger,
) *SessionSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SessionSweeper{
		sessions: sessions,
		idleTTL:  idleTTL,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (s *SessionSweeper) Start() {
	s.logger.Info("Starting SessionSweeper",
		slog.Duration("idle_ttl", s.idleTTL),
		slog.Duration("interval", s.interval),
	)
	go s.run()
}

func (s *SessionSweeper) Stop() {
	s.logger.Info("Stopping SessionSweeper")
	close(s.stopChan)
}

func (s *SessionSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
			if s.backoff > 0 {
				ticker.Reset(s.backoff)
			} else {
				ticker.Reset(s.interval)
			}
		}
	}
}

func (s *SessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cutoff := time.Now().Add(-s.idleTTL)
	removed, err := s.sessions.DeleteIdleBefore(ctx, cutoff)
	if err != nil {
		if s.backoff == 0 {
			s.backoff = initialBackoff
		} else {
			s.backoff *= 2
			if s.backoff > maxBackoff {
				s.backoff = maxBackoff
			}
		}
		s.logger.Error("session_sweep_failed",
			slog.String("error", err.Error()),
			slog.Duration("backoff", s.backoff),
		)
		return
	}

	s.backoff = 0
	if removed > 0 {
		s.logger.Info("session_sweep_completed",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff),
		)
	}
}
