package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-ledger-go/library/features/command/sweepoverdue"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// ErrInvalidInterval is returned when the sweep interval is not positive.
var ErrInvalidInterval = errors.New("sweep interval must be positive")

// Handler runs one overdue sweep.
type Handler = shell.CoreCommandHandler[sweepoverdue.Command, int64]

// Sweeper runs SweepOverdue every interval until its context is done.
type Sweeper struct {
	handler  Handler
	interval time.Duration
	clock    core.Clock
	logger   shell.ContextualLogger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock sets the clock that provides the sweep time.
func WithClock(clock core.Clock) Option {
	return func(s *Sweeper) {
		s.clock = clock
	}
}

// WithLogger sets the logger for sweep outcomes.
func WithLogger(logger shell.ContextualLogger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// New creates a Sweeper.
func New(handler Handler, interval time.Duration, opts ...Option) (*Sweeper, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	sweeper := &Sweeper{handler: handler, interval: interval, clock: core.SystemClock()}

	for _, opt := range opts {
		opt(sweeper)
	}

	return sweeper, nil
}

// Run sweeps once right away and then on every tick. It returns nil when ctx is done.
// A failed sweep is logged and the next tick tries again.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logInfo(ctx, "overdue sweeper started", "interval", s.interval.String())

	for {
		_, _ = s.SweepOnce(ctx)

		select {
		case <-ctx.Done():
			s.logInfo(ctx, "overdue sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// SweepOnce runs a single sweep at the current clock time and returns how many loans became overdue.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := s.clock()

	result, err := s.handler.Handle(ctx, sweepoverdue.BuildCommand(now))
	if err != nil {
		if ctx.Err() == nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "overdue sweep failed", "now", now, "error", err.Error())
		}

		return 0, err
	}

	if result.Value > 0 {
		s.logInfo(ctx, "loans marked overdue", "count", result.Value, "now", now)
	}

	return result.Value, nil
}

func (s *Sweeper) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
