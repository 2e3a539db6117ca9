package main

import (
	"fmt"

	"cinematch/internal/gate"
	"cinematch/internal/library"
	"cinematch/internal/pipeline"
	"cinematch/internal/review"
)

func decisionLabel(r pipeline.Result) string {
	label := gate.Label(r.Selection)
	if r.Review != nil {
		label += " (" + review.Label(r.Review) + ")"
	}
	switch sel := r.Selection.(type) {
	case gate.Skipped:
		return label + ": " + sel.Reason
	case gate.ManualPending:
		if r.Review == nil {
			return label + ": " + sel.Reason
		}
	}
	return label
}

func matchLabel(r pipeline.Result) string {
	c, ok := r.Resolved()
	if !ok {
		return "-"
	}
	confidence := 0.0
	if chosen, ok := r.Review.(review.Chosen); ok {
		confidence = chosen.Confidence
	} else if auto, ok := r.Selection.(gate.AutoSelected); ok {
		confidence = auto.Confidence
	}
	return fmt.Sprintf("%s [tmdb:%d] %.2f", c.DisplayTitle(), c.ID, confidence)
}

func libraryLabel(r pipeline.Result) string {
	if r.Outcome == nil {
		return "-"
	}
	switch o := r.Outcome.(type) {
	case library.Added:
		label := fmt.Sprintf("added #%d", o.LibraryID)
		if r.Imported {
			label += ", import queued"
		}
		return label
	case library.AlreadyPresent:
		return fmt.Sprintf("present #%d", o.LibraryID)
	case library.Failed:
		return "failed: " + r.Err
	}
	return library.Label(r.Outcome)
}
