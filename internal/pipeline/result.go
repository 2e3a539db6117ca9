package pipeline

import (
	"time"

	"cinematch/internal/catalog"
	"cinematch/internal/gate"
	"cinematch/internal/library"
	"cinematch/internal/normalize"
	"cinematch/internal/review"
	"cinematch/internal/scoring"
)

// Result is the record kept for one processed file.
type Result struct {
	Index     int
	Path      string
	Name      string
	Query     normalize.Query
	Selection gate.Selection
	// Review is set only when the file was deferred to an operator who
	// answered.
	Review   review.Decision
	Outcome  library.Outcome
	Imported bool
	Elapsed  time.Duration
	// Err is the services.Kind label of the failure that shaped the result.
	Err   string
	Cause error
}

// Resolved returns the candidate the file was matched to, either by the gate
// or by an operator.
func (r Result) Resolved() (catalog.Candidate, bool) {
	if chosen, ok := r.Review.(review.Chosen); ok {
		return chosen.Candidate, true
	}
	if auto, ok := r.Selection.(gate.AutoSelected); ok {
		return auto.Candidate, true
	}
	return catalog.Candidate{}, false
}

// Ranked returns the scored candidates carried by the selection, if any.
func (r Result) Ranked() []scoring.ScoredCandidate {
	if pending, ok := r.Selection.(gate.ManualPending); ok {
		return pending.Ranked
	}
	return nil
}

// Counts tallies results by what happened to them.
type Counts struct {
	MatchedAuto    int `json:"matched_auto"`
	MatchedManual  int `json:"matched_manual"`
	Skipped        int `json:"skipped"`
	PendingReview  int `json:"pending_review"`
	Added          int `json:"added"`
	AlreadyPresent int `json:"already_present"`
	Failed         int `json:"failed"`
}

// Summary is the outcome of one run.
type Summary struct {
	RunID       string
	Root        string
	DryRun      bool
	StartedAt   time.Time
	FinishedAt  time.Time
	Counts      Counts
	Results     []Result
	Cancelled   bool
	Unprocessed int
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s == nil || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (c *Counts) add(r Result) {
	switch r.Outcome.(type) {
	case library.Added:
		c.Added++
	case library.AlreadyPresent:
		c.AlreadyPresent++
	case library.Failed:
		c.Failed++
	}

	switch r.Selection.(type) {
	case gate.AutoSelected:
		c.MatchedAuto++
	case gate.ManualPending:
		switch r.Review.(type) {
		case review.Chosen:
			c.MatchedManual++
		case review.Declined:
			c.Skipped++
		default:
			c.PendingReview++
		}
	case gate.Skipped:
		// A catalog failure is already counted through its Failed outcome.
		if _, failed := r.Outcome.(library.Failed); !failed {
			c.Skipped++
		}
	}
}
