// Package audit turns a run summary into the JSON record kept for each run.
package audit

import (
	"time"

	"cinematch/internal/gate"
	"cinematch/internal/library"
	"cinematch/internal/pipeline"
	"cinematch/internal/review"
)

// Version is bumped when the record layout changes incompatibly.
const Version = 1

// Record is one run.
type Record struct {
	Version     int             `json:"version"`
	RunID       string          `json:"run_id"`
	Root        string          `json:"root,omitempty"`
	DryRun      bool            `json:"dry_run"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	DurationMS  int64           `json:"duration_ms"`
	Cancelled   bool            `json:"cancelled"`
	Unprocessed int             `json:"unprocessed"`
	Counts      pipeline.Counts `json:"counts"`
	Files       []File          `json:"files"`
}

// File is the per-file entry.
type File struct {
	Index        int         `json:"index"`
	Path         string      `json:"path"`
	Title        string      `json:"title"`
	Year         int         `json:"year,omitempty"`
	Stripped     []string    `json:"stripped,omitempty"`
	Decision     string      `json:"decision"`
	Reason       string      `json:"reason,omitempty"`
	Review       string      `json:"review,omitempty"`
	ChosenID     int64       `json:"chosen_id,omitempty"`
	ChosenTitle  string      `json:"chosen_title,omitempty"`
	Confidence   float64     `json:"confidence,omitempty"`
	Score        float64     `json:"score,omitempty"`
	AIConfidence float64     `json:"ai_confidence,omitempty"`
	Candidates   []Candidate `json:"candidates,omitempty"`
	Outcome      string      `json:"outcome,omitempty"`
	LibraryID    int64       `json:"library_id,omitempty"`
	Imported     bool        `json:"imported,omitempty"`
	ErrorKind    string      `json:"error_kind,omitempty"`
	Error        string      `json:"error,omitempty"`
	ElapsedMS    int64       `json:"elapsed_ms"`
}

// Candidate is a ranked catalog entry with its component scores.
type Candidate struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Year            int     `json:"year,omitempty"`
	Score           float64 `json:"score"`
	TitleScore      float64 `json:"title_score"`
	YearScore       float64 `json:"year_score"`
	PopularityScore float64 `json:"popularity_score"`
	LanguageScore   float64 `json:"language_score"`
}

// FromSummary builds the record for a finished run.
func FromSummary(s *pipeline.Summary) Record {
	rec := Record{
		Version:     Version,
		RunID:       s.RunID,
		Root:        s.Root,
		DryRun:      s.DryRun,
		StartedAt:   s.StartedAt.UTC(),
		FinishedAt:  s.FinishedAt.UTC(),
		DurationMS:  s.Duration().Milliseconds(),
		Cancelled:   s.Cancelled,
		Unprocessed: s.Unprocessed,
		Counts:      s.Counts,
		Files:       make([]File, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		rec.Files = append(rec.Files, fileEntry(r))
	}
	return rec
}

func fileEntry(r pipeline.Result) File {
	f := File{
		Index:     r.Index,
		Path:      r.Path,
		Title:     r.Query.Title,
		Year:      r.Query.Year,
		Stripped:  r.Query.Stripped,
		Decision:  gate.Label(r.Selection),
		ErrorKind: r.Err,
		ElapsedMS: r.Elapsed.Milliseconds(),
	}
	if r.Cause != nil {
		f.Error = r.Cause.Error()
	}

	switch sel := r.Selection.(type) {
	case gate.AutoSelected:
		f.Score = sel.Score
		f.AIConfidence = sel.AIConfidence
		f.Confidence = sel.Confidence
	case gate.ManualPending:
		f.Reason = sel.Reason
		for _, sc := range sel.Ranked {
			f.Candidates = append(f.Candidates, Candidate{
				ID:              sc.Candidate.ID,
				Title:           sc.Candidate.Title,
				Year:            sc.Candidate.Year,
				Score:           sc.Score,
				TitleScore:      sc.Components.Title,
				YearScore:       sc.Components.Year,
				PopularityScore: sc.Components.Popularity,
				LanguageScore:   sc.Components.Language,
			})
		}
	case gate.Skipped:
		f.Reason = sel.Reason
	}

	if r.Review != nil {
		f.Review = review.Label(r.Review)
		if chosen, ok := r.Review.(review.Chosen); ok {
			f.Confidence = chosen.Confidence
		}
	}
	if c, ok := r.Resolved(); ok {
		f.ChosenID = c.ID
		f.ChosenTitle = c.DisplayTitle()
	}

	switch outcome := r.Outcome.(type) {
	case library.Added:
		f.LibraryID = outcome.LibraryID
	case library.AlreadyPresent:
		f.LibraryID = outcome.LibraryID
	case library.Failed:
		if f.Error == "" && outcome.Cause != nil {
			f.Error = outcome.Cause.Error()
		}
	}
	if r.Outcome != nil {
		f.Outcome = library.Label(r.Outcome)
	}
	f.Imported = r.Imported
	return f
}
