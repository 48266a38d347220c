package scan

import (
	"time"

	"plextagger/internal/classifier"
	"plextagger/internal/services/plex"
)

// Managed label tags. An item carries at most one of them.
const (
	LabelStandup    = "standup"
	LabelNotStandup = "verified_not_standup"
)

// Action records what the runner did with one item.
type Action string

const (
	ActionSkipped   Action = "skipped"
	ActionLabeled   Action = "labeled"
	ActionUnknown   Action = "unknown"
	ActionFailed    Action = "failed"
	ActionRepaired  Action = "conflict_resolved"
	ActionCleared   Action = "cleared"
	ActionUnchanged Action = "unchanged"
)

// Outcome is the result for one item in catalog order.
type Outcome struct {
	Item    plex.Item
	Action  Action
	Verdict classifier.Verdict
	// Label is the label written (or already present, for skips).
	Label string
	Err   error
}

// Summary counts outcomes. Processed is the number of items examined; every
// examined item lands in exactly one of the other buckets.
type Summary struct {
	Processed         int `json:"processed"`
	Skipped           int `json:"skipped"`
	Standup           int `json:"standup"`
	NotStandup        int `json:"not_standup"`
	Unknown           int `json:"unknown"`
	Failed            int `json:"failed"`
	ConflictsResolved int `json:"conflicts_resolved"`
}

func (s *Summary) record(outcome Outcome) {
	s.Processed++
	switch outcome.Action {
	case ActionSkipped:
		s.Skipped++
	case ActionRepaired:
		s.ConflictsResolved++
	case ActionUnknown:
		s.Unknown++
	case ActionFailed:
		s.Failed++
	case ActionLabeled:
		switch outcome.Verdict {
		case classifier.Standup:
			s.Standup++
		case classifier.NotStandup:
			s.NotStandup++
		}
	}
}

// Report describes one completed (or aborted) sweep.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
	Summary    Summary
}

// Duration is the wall time of the run.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ResetReport describes a label reset sweep.
type ResetReport struct {
	Examined int
	Cleared  int
	Failed   int
	Outcomes []Outcome
}
