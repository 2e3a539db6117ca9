// Package aiselect asks a language model which ranked candidate a file is.
//
// The adapter only reports what the model said. It never accepts a match on
// its own; the confidence gate combines the reply with the deterministic
// score.
package aiselect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"cinematch/internal/logging"
	"cinematch/internal/scoring"
	"cinematch/internal/services"
	"cinematch/internal/services/llm"
)

const defaultMaxCandidates = 5

// Completer issues a JSON-mode completion.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Selector builds the request, calls the model and validates the reply.
type Selector struct {
	completer     Completer
	maxCandidates int
	logger        *slog.Logger
}

// NewSelector constructs a Selector. A nil completer makes every call
// Unavailable. maxCandidates bounds how many ranked entries are submitted.
func NewSelector(completer Completer, maxCandidates int, logger *slog.Logger) *Selector {
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}
	return &Selector{
		completer:     completer,
		maxCandidates: maxCandidates,
		logger:        logging.NewComponentLogger(logger, "aiselect"),
	}
}

// Select submits the leading ranked candidates and interprets the reply. A
// Picked index refers to the position in ranked.
func (s *Selector) Select(ctx context.Context, filename string, ranked []scoring.ScoredCandidate) Suggestion {
	logger := logging.WithContext(ctx, s.logger)
	top := scoring.Top(ranked, s.maxCandidates)
	if len(top) == 0 {
		return NoMatch{Rationale: "no candidates submitted"}
	}
	if s.completer == nil {
		return Unavailable{Cause: services.Wrap(services.ErrAIUnavailable, "aiselect", "complete", "no reasoning service configured", nil)}
	}

	userPrompt, err := buildUserPrompt(filename, top)
	if err != nil {
		return Unavailable{Cause: services.Wrap(services.ErrAIUnavailable, "aiselect", "encode request", "", err)}
	}
	content, err := s.completer.CompleteJSON(ctx, SelectionPrompt, userPrompt)
	if err != nil {
		logging.WarnWithContext(logger, "ai selection unavailable", "ai_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check llm api key, model and network"),
			logging.String(logging.FieldImpact, "file will be routed to manual review"))
		return Unavailable{Cause: services.Wrap(services.ErrAIUnavailable, "aiselect", "complete", "", err)}
	}

	suggestion := ParseReply(content, len(top))
	switch v := suggestion.(type) {
	case Picked:
		logger.Info("ai selection",
			logging.Int("index", v.Index),
			logging.Int64("tmdb_id", top[v.Index].Candidate.ID),
			logging.Float64("ai_confidence", v.Confidence),
			logging.String("rationale", v.Rationale))
	case NoMatch:
		logger.Info("ai found no match", logging.String("rationale", v.Rationale))
	case Invalid:
		logging.WarnWithContext(logger, "ai reply rejected", "ai_response_invalid",
			logging.Error(v.Cause),
			logging.String(logging.FieldErrorHint, "model ignored the reply schema; consider another model"),
			logging.String(logging.FieldImpact, "file will be routed to manual review"))
	}
	return suggestion
}

func buildUserPrompt(filename string, top []scoring.ScoredCandidate) (string, error) {
	payload := promptPayload{Filename: filename, Candidates: make([]promptCandidate, 0, len(top))}
	for i, sc := range top {
		payload.Candidates = append(payload.Candidates, promptCandidate{
			Index:         i,
			ID:            sc.Candidate.ID,
			Title:         sc.Candidate.Title,
			OriginalTitle: sc.Candidate.OriginalTitle,
			Year:          sc.Candidate.Year,
			Language:      sc.Candidate.OriginalLanguage,
			Popularity:    math.Round(sc.Candidate.Popularity*100) / 100,
			Score:         math.Round(sc.Score*1000) / 1000,
		})
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

type reply struct {
	Index      json.RawMessage `json:"index"`
	Confidence json.RawMessage `json:"confidence"`
	Rationale  json.RawMessage `json:"rationale"`
}

// ParseReply validates a model reply against n submitted candidates. The index
// must be an integer in [0, n) or null/"none"; a pick needs a numeric
// confidence in [0,1]. Anything else is Invalid, never clamped.
func ParseReply(content string, n int) Suggestion {
	var r reply
	if err := llm.DecodeJSON(content, &r); err != nil {
		return invalid(content, "decode reply", err)
	}
	rationale, err := parseRationale(r.Rationale)
	if err != nil {
		return invalid(content, "rationale", err)
	}

	index, none, err := parseIndex(r.Index)
	if err != nil {
		return invalid(content, "index", err)
	}
	if none {
		return NoMatch{Rationale: rationale}
	}
	if index < 0 || index >= n {
		return invalid(content, "index", fmt.Errorf("index %d outside 0..%d", index, n-1))
	}

	confidence, err := parseConfidence(r.Confidence)
	if err != nil {
		return invalid(content, "confidence", err)
	}
	return Picked{Index: index, Confidence: confidence, Rationale: rationale}
}

func parseIndex(raw json.RawMessage) (int, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false, errors.New("index missing")
	}
	if bytes.Equal(raw, []byte("null")) {
		return 0, true, nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false, err
		}
		if strings.EqualFold(strings.TrimSpace(text), "none") {
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("unexpected index %q", text)
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		return 0, false, fmt.Errorf("index is not a number: %s", raw)
	}
	if number != math.Trunc(number) {
		return 0, false, fmt.Errorf("index %v is not an integer", number)
	}
	return int(number), false, nil
}

func parseConfidence(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("confidence missing")
	}
	var confidence float64
	if err := json.Unmarshal(raw, &confidence); err != nil {
		return 0, fmt.Errorf("confidence is not a number: %s", raw)
	}
	if confidence < 0 || confidence > 1 || math.IsNaN(confidence) {
		return 0, fmt.Errorf("confidence %v outside [0,1]", confidence)
	}
	return confidence, nil
}

func parseRationale(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("rationale is not a string: %s", raw)
	}
	return strings.TrimSpace(text), nil
}

func invalid(raw, field string, err error) Invalid {
	return Invalid{
		Cause: services.Wrap(services.ErrAIResponseInvalid, "aiselect", "validate "+field, "", err),
		Raw:   raw,
	}
}
