// Package review hands low-confidence files to a human operator.
//
// Channel is the only contract the pipeline depends on. Terminal prompts on a
// reader/writer pair, Serialized ensures one prompt at a time across workers,
// and Unavailable stands in for non-interactive runs so items stay pending.
package review

import (
	"context"

	"cinematch/internal/catalog"
	"cinematch/internal/scoring"
	"cinematch/internal/services"
)

// DefaultSurface is how many ranked candidates an operator is shown.
const DefaultSurface = 3

// ManualConfidence is recorded for every operator choice.
const ManualConfidence = 1.0

// Request describes one file awaiting a decision.
type Request struct {
	Filename   string
	Title      string
	Year       int
	Reason     string
	Candidates []scoring.ScoredCandidate
	Surface    int
}

// Shown returns the candidates presented to the operator.
func (r Request) Shown() []scoring.ScoredCandidate {
	n := r.Surface
	if n <= 0 {
		n = DefaultSurface
	}
	return scoring.Top(r.Candidates, n)
}

// Decision is the operator's answer: Chosen or Declined.
type Decision interface {
	isDecision()
}

// Chosen is an operator pick. Confidence is always ManualConfidence.
type Chosen struct {
	Candidate  catalog.Candidate `json:"candidate"`
	Confidence float64           `json:"confidence"`
}

// Declined means the operator skipped the file.
type Declined struct{}

func (Chosen) isDecision()   {}
func (Declined) isDecision() {}

// Label names the decision variant.
func Label(d Decision) string {
	switch d.(type) {
	case Chosen:
		return "chosen"
	case Declined:
		return "declined"
	default:
		return "none"
	}
}

// Channel presents a request and blocks until the operator answers or ctx
// ends.
type Channel interface {
	Review(ctx context.Context, req Request) (Decision, error)
}

// Unavailable is the channel used when nobody is there to answer.
type Unavailable struct{}

// Review always fails with services.ErrReviewUnavailable.
func (Unavailable) Review(context.Context, Request) (Decision, error) {
	return nil, services.Wrap(services.ErrReviewUnavailable, "review", "prompt", "no interactive operator", nil)
}
