package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrAIUnavailable      = errors.New("ai unavailable")
	ErrAIResponseInvalid  = errors.New("ai response invalid")
	ErrLibraryUnavailable = errors.New("library unavailable")
	ErrNoCandidates       = errors.New("no candidates")
	ErrBatchCapReached    = errors.New("batch cap reached")
	ErrReviewUnavailable  = errors.New("review unavailable")
	ErrConfiguration      = errors.New("configuration error")
	ErrTransient          = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the taxonomy label recorded in audit output.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCatalogUnavailable):
		return "catalog_unavailable"
	case errors.Is(err, ErrAIUnavailable):
		return "ai_unavailable"
	case errors.Is(err, ErrAIResponseInvalid):
		return "ai_response_invalid"
	case errors.Is(err, ErrLibraryUnavailable):
		return "library_unavailable"
	case errors.Is(err, ErrNoCandidates):
		return "no_candidates"
	case errors.Is(err, ErrBatchCapReached):
		return "batch_cap_reached"
	case errors.Is(err, ErrReviewUnavailable):
		return "review_unavailable"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
