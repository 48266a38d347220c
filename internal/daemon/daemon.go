package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"plextagger/internal/config"
	"plextagger/internal/logging"
	"plextagger/internal/notifications"
	"plextagger/internal/scan"
	"plextagger/internal/schedule"
)

// Scanner runs one classification sweep.
type Scanner interface {
	Run(ctx context.Context) (scan.Report, error)
}

// Daemon owns the scheduled scan loop and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	scanner  Scanner
	prefs    schedule.PreferenceSource
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool

	schedOpts []schedule.Option
}

// Option customizes the daemon.
type Option func(*Daemon)

// WithSchedulerOptions forwards options to the scheduler (tests).
func WithSchedulerOptions(opts ...schedule.Option) Option {
	return func(d *Daemon) {
		d.schedOpts = append(d.schedOpts, opts...)
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, scanner Scanner, prefs schedule.PreferenceSource, notifier notifications.Service, opts ...Option) (*Daemon, error) {
	if cfg == nil || scanner == nil {
		return nil, errors.New("daemon requires config and scanner")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	lockPath := cfg.DaemonLockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		scanner:  scanner,
		prefs:    prefs,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the daemon lock.
func (d *Daemon) Start() error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another plextagger daemon instance is already running")
	}

	d.running.Store(true)
	d.logger.Info("plextagger daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("plextagger daemon stopped")
}

// Run holds the lock, scans once immediately, then scans daily until ctx is
// cancelled. Cancellation is a clean shutdown and returns nil.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	defer d.Stop()

	plan := schedule.BuildPlan(ctx, d.prefs, d.cfg.Schedule, d.logger)
	d.logger.Info("daily scan scheduled",
		logging.String(logging.FieldEventType, "schedule_planned"),
		logging.String("run_at", plan.RunAt()),
		logging.Int("maintenance_end_hour", plan.MaintenanceEndHour),
		logging.Bool("fallback", plan.FromFallback),
	)

	scheduler := schedule.New(plan, d.scanOnce, d.logger, d.schedOpts...)
	err := scheduler.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (d *Daemon) scanOnce(ctx context.Context) {
	report, err := d.scanner.Run(ctx)
	switch {
	case errors.Is(err, scan.ErrScanInProgress):
		d.logger.Info("scan skipped; another scan is running",
			logging.String(logging.FieldEventType, "scan_skipped"),
		)
		return
	case errors.Is(err, context.Canceled):
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err != nil {
		if notifyErr := d.notifier.NotifyScanFailed(notifyCtx, err); notifyErr != nil {
			d.warnNotify(notifyErr)
		}
		return
	}
	if notifyErr := d.notifier.NotifyScanCompleted(notifyCtx, report); notifyErr != nil {
		d.warnNotify(notifyErr)
	}
}

func (d *Daemon) warnNotify(err error) {
	logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		logging.String(logging.FieldImpact, "scan result not pushed"),
	)
}

// LockHeld reports whether some process holds the daemon lock at path.
func LockHeld(path string) (bool, error) {
	other := flock.New(path)
	ok, err := other.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = other.Unlock()
		return false, nil
	}
	return true, nil
}
