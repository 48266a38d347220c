package schedule

import (
	"context"
	"log/slog"
	"time"

	"plextagger/internal/logging"
)

// Trigger starts one scan. It is called synchronously, so a long run delays
// the next fire rather than overlapping it.
type Trigger func(ctx context.Context)

// Scheduler fires a trigger at startup and then daily.
type Scheduler struct {
	plan    Plan
	trigger Trigger
	logger  *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// Option customizes the scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source and timer (tests).
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
		if after != nil {
			s.after = after
		}
	}
}

// New constructs a scheduler for plan.
func New(plan Plan, trigger Trigger, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		plan:    plan,
		trigger: trigger,
		logger:  logging.NewComponentLogger(logger, "schedule"),
		now:     time.Now,
		after:   time.After,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan returns the scheduler's plan.
func (s *Scheduler) Plan() Plan {
	return s.plan
}

// Run fires the trigger once immediately, then once per day at the plan's
// hour, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.trigger == nil {
		return nil
	}
	s.fire(ctx, "startup")
	for {
		next := s.plan.NextRun(s.now())
		wait := next.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		s.logger.Info("next scan scheduled",
			logging.Time("next_run", next),
			logging.Duration("wait", wait.Round(time.Second)),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(wait):
		}
		s.fire(ctx, "daily")
	}
}

func (s *Scheduler) fire(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Debug("trigger fired", logging.String("reason", reason))
	s.trigger(ctx)
}
