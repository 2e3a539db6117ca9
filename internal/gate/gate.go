// Package gate decides whether a file is matched automatically, handed to an
// operator, or skipped.
package gate

import (
	"fmt"

	"cinematch/internal/aiselect"
	"cinematch/internal/catalog"
	"cinematch/internal/scoring"
)

// DefaultThreshold is the confidence both signals must reach for an
// automatic match.
const DefaultThreshold = 0.95

const (
	ReasonNoCandidates    = "no candidates"
	ReasonAINoMatch       = "ai found no match"
	ReasonBatchCap        = "batch cap reached"
	ReasonCatalogFailure  = "catalog unavailable"
	ReasonBelowThreshold  = "below confidence threshold"
	ReasonAIUnavailable   = "ai unavailable"
	ReasonAIInvalid       = "ai response invalid"
	ReasonPickedNotRanked = "ai pick not in ranked list"
)

// Selection is the gate's verdict: AutoSelected, ManualPending or Skipped.
type Selection interface {
	isSelection()
}

// AutoSelected is a match accepted without an operator. Confidence is the
// lower of the deterministic score and the AI confidence.
type AutoSelected struct {
	Candidate    catalog.Candidate `json:"candidate"`
	Confidence   float64           `json:"confidence"`
	Score        float64           `json:"score"`
	AIConfidence float64           `json:"ai_confidence"`
}

// ManualPending routes the ranked list to the review channel.
type ManualPending struct {
	Ranked []scoring.ScoredCandidate `json:"ranked"`
	Reason string                    `json:"reason"`
}

// Skipped means nothing will be added for the file.
type Skipped struct {
	Reason string `json:"reason"`
}

func (AutoSelected) isSelection()  {}
func (ManualPending) isSelection() {}
func (Skipped) isSelection()       {}

// Label names the selection variant.
func Label(s Selection) string {
	switch s.(type) {
	case AutoSelected:
		return "auto_selected"
	case ManualPending:
		return "manual_pending"
	case Skipped:
		return "skipped"
	default:
		return "none"
	}
}

// Gate applies the confidence threshold.
type Gate struct {
	Threshold float64
}

// New returns a Gate; a threshold outside (0,1] uses DefaultThreshold.
func New(threshold float64) Gate {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return Gate{Threshold: threshold}
}

// Decide combines the ranked list with the AI suggestion. A pick is judged on
// the picked candidate's own deterministic score, not the top score. Decide
// is pure.
func (g Gate) Decide(ranked []scoring.ScoredCandidate, suggestion aiselect.Suggestion) Selection {
	if len(ranked) == 0 {
		return Skipped{Reason: ReasonNoCandidates}
	}
	threshold := g.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	switch s := suggestion.(type) {
	case aiselect.NoMatch:
		return Skipped{Reason: ReasonAINoMatch}
	case aiselect.Picked:
		if s.Index < 0 || s.Index >= len(ranked) {
			return ManualPending{Ranked: ranked, Reason: ReasonPickedNotRanked}
		}
		picked := ranked[s.Index]
		if picked.Score >= threshold && s.Confidence >= threshold {
			return AutoSelected{
				Candidate:    picked.Candidate,
				Confidence:   min(picked.Score, s.Confidence),
				Score:        picked.Score,
				AIConfidence: s.Confidence,
			}
		}
		return ManualPending{
			Ranked: ranked,
			Reason: fmt.Sprintf("%s (score %.2f, ai %.2f, threshold %.2f)", ReasonBelowThreshold, picked.Score, s.Confidence, threshold),
		}
	case aiselect.Unavailable:
		return ManualPending{Ranked: ranked, Reason: ReasonAIUnavailable}
	case aiselect.Invalid:
		return ManualPending{Ranked: ranked, Reason: ReasonAIInvalid}
	default:
		return ManualPending{Ranked: ranked, Reason: ReasonAIUnavailable}
	}
}
