package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"plextagger/internal/config"
	"plextagger/internal/logging"
)

// Plan is the daily run time derived from the maintenance window.
type Plan struct {
	MaintenanceEndHour int
	// FromFallback is set when the server did not report a usable hour.
	FromFallback bool
	OffsetHours  int
	RunHour      int
	Location     *time.Location
}

// NewPlan computes the run hour as (maintenanceEndHour + offset) mod 24.
func NewPlan(maintenanceEndHour, offsetHours int, fromFallback bool, loc *time.Location) Plan {
	if loc == nil {
		loc = time.Local
	}
	return Plan{
		MaintenanceEndHour: maintenanceEndHour,
		FromFallback:       fromFallback,
		OffsetHours:        offsetHours,
		RunHour:            ((maintenanceEndHour+offsetHours)%24 + 24) % 24,
		Location:           loc,
	}
}

// NextRun returns the first run time strictly after now.
func (p Plan) NextRun(now time.Time) time.Time {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), p.RunHour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, p.RunHour, 0, 0, 0, loc)
	}
	return next
}

// RunAt formats the run hour as HH:00.
func (p Plan) RunAt() string {
	return fmt.Sprintf("%02d:00", p.RunHour)
}

// PreferenceSource reports the server's maintenance window end hour.
type PreferenceSource interface {
	MaintenanceEndHour(ctx context.Context) (int, error)
}

// BuildPlan reads the maintenance hour from src, falling back to the
// configured hour on any error.
func BuildPlan(ctx context.Context, src PreferenceSource, cfg config.Schedule, logger *slog.Logger) Plan {
	logger = logging.NewComponentLogger(logger, "schedule")
	hour := -1
	var err error
	if src == nil {
		err = errors.New("no preference source")
	} else {
		hour, err = src.MaintenanceEndHour(ctx)
	}
	if err == nil && (hour < 0 || hour > 23) {
		err = fmt.Errorf("maintenance hour %d out of range", hour)
	}
	if err != nil {
		logging.WarnWithContext(logger, "maintenance hour unavailable; using fallback", "maintenance_hour_fallback",
			logging.Error(err),
			logging.Int("fallback_hour", cfg.FallbackMaintenanceEndHour),
			logging.String(logging.FieldErrorHint, "set ButlerEndHour in Plex scheduled tasks or schedule.fallback_maintenance_end_hour"),
			logging.String(logging.FieldImpact, "daily scan runs relative to the fallback hour"),
		)
		return NewPlan(cfg.FallbackMaintenanceEndHour, cfg.OffsetHours, true, time.Local)
	}
	plan := NewPlan(hour, cfg.OffsetHours, false, time.Local)
	logger.Info("schedule planned",
		logging.Int("maintenance_end_hour", plan.MaintenanceEndHour),
		logging.String("run_at", plan.RunAt()),
	)
	return plan
}
