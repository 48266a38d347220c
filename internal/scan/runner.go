package scan

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"plextagger/internal/classifier"
	"plextagger/internal/logging"
	"plextagger/internal/services"
	"plextagger/internal/services/plex"
)

// ErrCatalogFetch marks a run aborted because the genre listing failed.
var ErrCatalogFetch = services.ErrCatalogFetch

// Catalog lists items in a library.
type Catalog interface {
	ItemsInGenre(ctx context.Context, library, genre string) ([]plex.Item, error)
	AllItems(ctx context.Context, library string) ([]plex.Item, error)
}

// LabelStore reads and writes item labels.
type LabelStore interface {
	Labels(ctx context.Context, item plex.Item) (plex.LabelSet, error)
	// AddLabel must refuse, with an error wrapping plex.ErrConflictingLabel,
	// when any exclusive label is already on the item.
	AddLabel(ctx context.Context, item plex.Item, label string, exclusive ...string) error
	RemoveLabel(ctx context.Context, item plex.Item, label string) error
}

// Classifier decides the verdict for one item.
type Classifier interface {
	Classify(ctx context.Context, item classifier.Item) classifier.Verdict
}

// Options configures a Runner.
type Options struct {
	Library string
	Genre   string
	// Guard serializes sweeps; nil installs a process-local guard.
	Guard *Guard
	Now   func() time.Time
}

// Runner executes classification sweeps.
type Runner struct {
	catalog    Catalog
	labels     LabelStore
	classifier Classifier
	logger     *slog.Logger

	library string
	genre   string
	guard   *Guard
	now     func() time.Time
}

// NewRunner wires a runner from its collaborators.
func NewRunner(catalog Catalog, labels LabelStore, cls Classifier, logger *slog.Logger, opts Options) *Runner {
	guard := opts.Guard
	if guard == nil {
		guard = NewGuard("")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		catalog:    catalog,
		labels:     labels,
		classifier: cls,
		logger:     logging.NewComponentLogger(logger, "scan"),
		library:    strings.TrimSpace(opts.Library),
		genre:      strings.TrimSpace(opts.Genre),
		guard:      guard,
		now:        now,
	}
}

// Run performs one sweep. It returns an error wrapping ErrCatalogFetch when
// the listing fails, ErrScanInProgress when another sweep holds the guard, or
// the context error when cancelled between items. Per-item failures are
// reported in the Report, not as an error.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	release, err := r.guard.TryAcquire()
	if err != nil {
		return Report{}, err
	}
	defer release()

	report := Report{RunID: uuid.NewString(), StartedAt: r.now()}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("scan started",
		logging.String(logging.FieldEventType, "scan_started"),
		logging.String("library", r.library),
		logging.String("genre", r.genre),
	)

	items, err := r.catalog.ItemsInGenre(ctx, r.library, r.genre)
	if err != nil {
		report.FinishedAt = r.now()
		err = services.Wrap(ErrCatalogFetch, "scan", "list items", r.library+"/"+r.genre, err)
		logging.ErrorWithContext(logger, "catalog fetch failed", "catalog_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check plex.url, plex.token, and plex.library"),
			logging.String(logging.FieldImpact, "run aborted; next scheduled run will retry"),
		)
		return report, err
	}
	logger.Info("catalog listed", logging.Int("items", len(items)))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = r.now()
			logging.WarnWithContext(logger, "scan cancelled", "scan_cancelled",
				logging.Int("remaining", len(items)-report.Summary.Processed),
				logging.String(logging.FieldErrorHint, "remaining items are picked up on the next run"),
				logging.String(logging.FieldImpact, "run ended early"),
			)
			return report, err
		}
		outcome := r.processItem(ctx, item)
		report.Outcomes = append(report.Outcomes, outcome)
		report.Summary.record(outcome)
	}

	report.FinishedAt = r.now()
	s := report.Summary
	logger.Info("scan finished",
		logging.String(logging.FieldEventType, "scan_finished"),
		logging.Int("processed", s.Processed),
		logging.Int("skipped", s.Skipped),
		logging.Int("standup", s.Standup),
		logging.Int("not_standup", s.NotStandup),
		logging.Int("unknown", s.Unknown),
		logging.Int("failed", s.Failed),
		logging.Int("conflicts_resolved", s.ConflictsResolved),
		logging.Duration("duration", report.Duration()),
	)
	return report, nil
}

func (r *Runner) processItem(ctx context.Context, item plex.Item) Outcome {
	ctx = logging.WithRatingKey(ctx, item.RatingKey)
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldTitle, item.Title))
	outcome := Outcome{Item: item}

	current, err := r.labels.Labels(ctx, item)
	if err != nil {
		logging.WarnWithContext(logger, "label read failed", "label_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "item skipped this run"),
		)
		outcome.Action = ActionFailed
		outcome.Err = err
		return outcome
	}
	hasStandup := current.Has(LabelStandup)
	hasNot := current.Has(LabelNotStandup)

	switch {
	case hasStandup && hasNot:
		if err := r.labels.RemoveLabel(ctx, item, LabelStandup); err != nil {
			r.logWriteFailure(logger, err)
			outcome.Action = ActionFailed
			outcome.Err = err
			return outcome
		}
		logger.Info("conflicting labels repaired",
			logging.String(logging.FieldEventType, "conflict_resolved"),
			logging.String("removed", LabelStandup),
		)
		outcome.Action = ActionRepaired
		outcome.Label = LabelNotStandup
		return outcome
	case hasStandup:
		logger.Debug("already labeled", logging.String("label", LabelStandup))
		outcome.Action = ActionSkipped
		outcome.Label = LabelStandup
		return outcome
	case hasNot:
		logger.Debug("already labeled", logging.String("label", LabelNotStandup))
		outcome.Action = ActionSkipped
		outcome.Label = LabelNotStandup
		return outcome
	}

	verdict := r.classifier.Classify(ctx, classifier.Item{
		Title:   item.Title,
		Year:    item.Year,
		Summary: item.Summary,
	})
	outcome.Verdict = verdict

	var label, opposite string
	switch verdict {
	case classifier.Standup:
		label, opposite = LabelStandup, LabelNotStandup
	case classifier.NotStandup:
		label, opposite = LabelNotStandup, LabelStandup
	default:
		logger.Info("verdict unknown; leaving unlabeled", logging.String(logging.FieldEventType, "verdict_unknown"))
		outcome.Action = ActionUnknown
		return outcome
	}

	err = r.labels.AddLabel(ctx, item, label, opposite)
	if errors.Is(err, plex.ErrConflictingLabel) {
		logger.Info("label added elsewhere during classification; keeping it",
			logging.String(logging.FieldEventType, "label_conflict_skipped"),
			logging.String("label", opposite),
			logging.String("verdict", verdict.String()),
		)
		outcome.Action = ActionSkipped
		outcome.Label = opposite
		return outcome
	}
	if err != nil {
		r.logWriteFailure(logger, err)
		outcome.Action = ActionFailed
		outcome.Err = err
		return outcome
	}
	logger.Info("label applied",
		logging.String(logging.FieldEventType, "label_applied"),
		logging.String("label", label),
	)
	outcome.Action = ActionLabeled
	outcome.Label = label
	return outcome
}

func (r *Runner) logWriteFailure(logger *slog.Logger, err error) {
	attrs := []logging.Attr{
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that the plex token can edit library metadata"),
		logging.String(logging.FieldImpact, "item retried on the next run"),
	}
	var writeErr *plex.LabelWriteError
	if errors.As(err, &writeErr) {
		attrs = append(attrs, logging.String("label", writeErr.Label), logging.String("op", writeErr.Op))
	}
	logging.WarnWithContext(logger, "label write failed", "label_write_failed", attrs...)
}

// Reset removes both managed labels from every item in the library. Items
// carrying neither label are left untouched. Reset shares the sweep guard so
// it never races a classification run.
func (r *Runner) Reset(ctx context.Context) (ResetReport, error) {
	release, err := r.guard.TryAcquire()
	if err != nil {
		return ResetReport{}, err
	}
	defer release()

	logger := r.logger.With(logging.String(logging.FieldEventType, "label_reset"))
	items, err := r.catalog.AllItems(ctx, r.library)
	if err != nil {
		return ResetReport{}, services.Wrap(ErrCatalogFetch, "reset", "list items", r.library, err)
	}

	var report ResetReport
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Examined++
		outcome := Outcome{Item: item, Action: ActionUnchanged}
		for _, label := range []string{LabelStandup, LabelNotStandup} {
			if !item.Labels.Has(label) {
				continue
			}
			if err := r.labels.RemoveLabel(ctx, item, label); err != nil {
				r.logWriteFailure(logger.With(logging.String(logging.FieldTitle, item.Title)), err)
				outcome.Action = ActionFailed
				outcome.Err = err
				break
			}
			outcome.Action = ActionCleared
			outcome.Label = label
		}
		switch outcome.Action {
		case ActionCleared:
			report.Cleared++
		case ActionFailed:
			report.Failed++
		}
		if outcome.Action != ActionUnchanged {
			report.Outcomes = append(report.Outcomes, outcome)
		}
	}
	logger.Info("label reset finished",
		logging.Int("examined", report.Examined),
		logging.Int("cleared", report.Cleared),
		logging.Int("failed", report.Failed),
	)
	return report, nil
}
