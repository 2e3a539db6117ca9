// Package pipeline drives scanned files through normalization, retrieval,
// scoring, AI selection, the confidence gate, manual review and the library
// upsert, and accumulates the run summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"cinematch/internal/aiselect"
	"cinematch/internal/catalog"
	"cinematch/internal/gate"
	"cinematch/internal/language"
	"cinematch/internal/library"
	"cinematch/internal/logging"
	"cinematch/internal/normalize"
	"cinematch/internal/review"
	"cinematch/internal/scan"
	"cinematch/internal/scoring"
	"cinematch/internal/services"
	"cinematch/internal/textutil"
)

// DefaultBatchCap bounds how many files one run sends to external services.
const DefaultBatchCap = 20

// Retriever finds catalog candidates for a query.
type Retriever interface {
	Retrieve(ctx context.Context, q normalize.Query) ([]catalog.Candidate, error)
}

// Selector asks the reasoning service to pick among ranked candidates.
type Selector interface {
	Select(ctx context.Context, filename string, ranked []scoring.ScoredCandidate) aiselect.Suggestion
}

// Library makes sure a chosen movie is tracked by the library manager.
type Library interface {
	Ensure(ctx context.Context, candidate catalog.Candidate) library.Outcome
	RequestImport(ctx context.Context, libraryID int64, dir, mode string) error
}

// Scanner lists the files under a directory.
type Scanner interface {
	Scan(ctx context.Context, root string) (*scan.Result, error)
}

// Observer is told about every finished file and every finished run.
type Observer interface {
	ObserveResult(Result)
	ObserveRun(*Summary)
}

// StartObserver is an Observer that also wants the size of a directory run
// before its first file starts.
type StartObserver interface {
	ObserveStart(ctx context.Context, root string, files int)
}

// Deps are the collaborators a run needs. Review, Selector, Scanner and
// Observer are optional.
type Deps struct {
	Normalizer *normalize.Normalizer
	Retriever  Retriever
	Scorer     *scoring.Scorer
	Selector   Selector
	Gate       gate.Gate
	Review     review.Channel
	Library    Library
	Scanner    Scanner
	Observer   Observer
}

// Options tune a run.
type Options struct {
	Parallelism   int
	BatchCap      int
	DryRun        bool
	ImportMode    string
	ReviewSurface int
	LanguageHints []string
}

// Orchestrator runs files through the pipeline.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New validates deps and returns an Orchestrator.
func New(deps Deps, opts Options, logger *slog.Logger) (*Orchestrator, error) {
	if deps.Retriever == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "catalog retriever required", nil)
	}
	if deps.Library == nil && !opts.DryRun {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "library required unless dry run", nil)
	}
	if deps.Normalizer == nil {
		deps.Normalizer = normalize.New()
	}
	if deps.Scorer == nil {
		deps.Scorer = scoring.NewScorer(scoring.DefaultWeights(), 1)
	}
	if deps.Gate.Threshold == 0 {
		deps.Gate = gate.New(0)
	}
	if deps.Review == nil {
		deps.Review = review.Unavailable{}
	}
	deps.Review = review.NewSerialized(deps.Review)

	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	if opts.BatchCap <= 0 {
		opts.BatchCap = DefaultBatchCap
	}
	if opts.ReviewSurface <= 0 {
		opts.ReviewSurface = review.DefaultSurface
	}
	opts.LanguageHints = language.NormalizeList(opts.LanguageHints)

	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// RunDir scans root and runs every video file found. A scan failure is the
// only run-level error besides cancellation.
func (o *Orchestrator) RunDir(ctx context.Context, root string) (*Summary, error) {
	if o.deps.Scanner == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "scan", "no scanner configured", nil)
	}
	scanned, err := o.deps.Scanner.Scan(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	videos := scanned.Videos()
	o.logger.Info("scan complete",
		logging.String("root", root),
		logging.Int("videos", len(videos)),
		logging.Int("ignored", len(scanned.Ignored)),
		logging.Int("errors", len(scanned.Errors)))
	if so, ok := o.deps.Observer.(StartObserver); ok {
		so.ObserveStart(ctx, root, len(videos))
	}
	summary, err := o.Run(ctx, videos)
	if summary != nil {
		summary.Root = root
	}
	return summary, err
}

// Run processes files in order with bounded parallelism. Every started file
// yields exactly one Result; Results keep the input order. When ctx ends no
// new files start and the partial summary is returned along with ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, files []scan.FileRecord) (*Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)

	state := &runState{
		summary: &Summary{RunID: runID, DryRun: o.opts.DryRun, StartedAt: time.Now()},
		memo:    make(map[string]*memoEntry),
	}
	logger.Info("run started",
		logging.Int("files", len(files)),
		logging.Int("parallelism", o.opts.Parallelism),
		logging.Int("batch_cap", o.opts.BatchCap),
		logging.Bool("dry_run", o.opts.DryRun))

	var skippedStart atomic.Int64
	started := 0
	p := pool.New().WithMaxGoroutines(o.opts.Parallelism)
	for i, rec := range files {
		if ctx.Err() != nil {
			break
		}
		started++
		p.Go(func() {
			if ctx.Err() != nil {
				skippedStart.Add(1)
				return
			}
			result := o.process(ctx, state, i, rec)
			state.append(result)
			if o.deps.Observer != nil {
				o.deps.Observer.ObserveResult(result)
			}
		})
	}
	p.Wait()

	summary := state.finish(len(files) - started + int(skippedStart.Load()))
	summary.Cancelled = ctx.Err() != nil
	if o.deps.Observer != nil {
		o.deps.Observer.ObserveRun(summary)
	}

	c := summary.Counts
	logger.Info("run finished",
		logging.Int("processed", len(summary.Results)),
		logging.Int("matched_auto", c.MatchedAuto),
		logging.Int("matched_manual", c.MatchedManual),
		logging.Int("skipped", c.Skipped),
		logging.Int("pending_review", c.PendingReview),
		logging.Int("added", c.Added),
		logging.Int("already_present", c.AlreadyPresent),
		logging.Int("failed", c.Failed),
		logging.Int("unprocessed", summary.Unprocessed),
		logging.Duration("elapsed", summary.Duration()))
	if summary.Cancelled {
		logging.WarnWithContext(logger, "run cancelled", "run_cancelled",
			logging.Int("unprocessed", summary.Unprocessed),
			logging.String(logging.FieldImpact, "remaining files were not processed; rerun to continue"))
		return summary, ctx.Err()
	}
	return summary, nil
}

func (o *Orchestrator) process(ctx context.Context, state *runState, index int, rec scan.FileRecord) Result {
	start := time.Now()
	ctx = services.WithFile(ctx, rec.Path, index)
	logger := logging.WithContext(ctx, o.logger)

	q := o.deps.Normalizer.Normalize(rec.Name, rec.Dir)
	res := Result{Index: index, Path: rec.Path, Name: rec.Name, Query: q}
	o.resolve(ctx, logger, state, rec, &res)
	res.Elapsed = time.Since(start)

	attrs := logging.DecisionAttrs(gate.Label(res.Selection), selectionReason(res.Selection))
	attrs = append(attrs,
		logging.String("title", q.Title),
		logging.Int("year", q.Year),
		logging.Duration("elapsed", res.Elapsed))
	if res.Review != nil {
		attrs = append(attrs, logging.String("review", review.Label(res.Review)))
	}
	if res.Outcome != nil {
		attrs = append(attrs, logging.String("outcome", library.Label(res.Outcome)))
	}
	if res.Err != "" {
		attrs = append(attrs, logging.String("error_kind", res.Err))
	}
	logger.Info("file processed", logging.Args(attrs...)...)
	return res
}

func (o *Orchestrator) resolve(ctx context.Context, logger *slog.Logger, state *runState, rec scan.FileRecord, res *Result) {
	if res.Index >= o.opts.BatchCap {
		res.Selection = gate.Skipped{Reason: gate.ReasonBatchCap}
		res.Err = services.Kind(services.ErrBatchCapReached)
		return
	}

	candidates, err := o.deps.Retriever.Retrieve(services.WithStage(ctx, "retrieve"), res.Query)
	if err != nil {
		res.Selection = gate.Skipped{Reason: gate.ReasonCatalogFailure}
		res.Outcome = library.Failed{Cause: err}
		res.Err, res.Cause = services.Kind(err), err
		return
	}
	if len(candidates) == 0 {
		res.Selection = gate.Skipped{Reason: gate.ReasonNoCandidates}
		res.Err = services.Kind(services.ErrNoCandidates)
		return
	}

	hints := language.NormalizeList(append(slices.Clone(res.Query.LanguageHints), o.opts.LanguageHints...))
	ranked := o.deps.Scorer.Score(scoring.Query{Title: res.Query.Title, Year: res.Query.Year, LanguageHints: hints}, candidates)

	suggestion := o.suggest(services.WithStage(ctx, "ai_select"), rec.Name, ranked)
	switch s := suggestion.(type) {
	case aiselect.Unavailable:
		res.Err, res.Cause = services.Kind(s.Cause), s.Cause
	case aiselect.Invalid:
		res.Err, res.Cause = services.Kind(s.Cause), s.Cause
	}
	res.Selection = o.deps.Gate.Decide(ranked, suggestion)

	var chosen catalog.Candidate
	switch sel := res.Selection.(type) {
	case gate.AutoSelected:
		chosen = sel.Candidate
	case gate.ManualPending:
		decision, err := o.review(services.WithStage(ctx, "review"), state, rec, res.Query, sel)
		if err != nil {
			if !errors.Is(err, services.ErrReviewUnavailable) {
				res.Err, res.Cause = services.Kind(err), err
			}
			return
		}
		res.Review = decision
		c, ok := decision.(review.Chosen)
		if !ok {
			return
		}
		chosen = c.Candidate
	case gate.Skipped:
		return
	}

	if o.opts.DryRun {
		return
	}
	o.upsert(services.WithStage(ctx, "library"), logger, rec, chosen, res)
}

func (o *Orchestrator) suggest(ctx context.Context, filename string, ranked []scoring.ScoredCandidate) aiselect.Suggestion {
	if o.deps.Selector == nil {
		return aiselect.Unavailable{Cause: services.Wrap(services.ErrAIUnavailable, "ai_select", "select", "no reasoning service configured", nil)}
	}
	return o.deps.Selector.Select(ctx, filename, ranked)
}

func (o *Orchestrator) upsert(ctx context.Context, logger *slog.Logger, rec scan.FileRecord, chosen catalog.Candidate, res *Result) {
	res.Outcome = o.deps.Library.Ensure(ctx, chosen)
	var libraryID int64
	switch outcome := res.Outcome.(type) {
	case library.Added:
		libraryID = outcome.LibraryID
	case library.AlreadyPresent:
		libraryID = outcome.LibraryID
	case library.Failed:
		res.Err, res.Cause = services.Kind(outcome.Cause), outcome.Cause
		return
	}

	if o.opts.ImportMode == "" || o.opts.ImportMode == "none" {
		return
	}
	if err := o.deps.Library.RequestImport(ctx, libraryID, filepath.Dir(rec.Path), o.opts.ImportMode); err != nil {
		logging.WarnWithContext(logger, "library import request failed", "library_import_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "trigger a manual import in radarr"),
			logging.String(logging.FieldImpact, "movie is tracked but the file was not imported"))
		return
	}
	res.Imported = true
}

// review asks the operator about a pending file. Files that normalize to the
// same query share one answer within a run.
func (o *Orchestrator) review(ctx context.Context, state *runState, rec scan.FileRecord, q normalize.Query, pending gate.ManualPending) (review.Decision, error) {
	key := memoKey(q)
	state.memoMu.Lock()
	if entry, ok := state.memo[key]; ok {
		state.memoMu.Unlock()
		select {
		case <-entry.done:
			return entry.decision, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	entry := &memoEntry{done: make(chan struct{})}
	state.memo[key] = entry
	state.memoMu.Unlock()

	entry.decision, entry.err = o.deps.Review.Review(ctx, review.Request{
		Filename:   rec.Name,
		Title:      q.Title,
		Year:       q.Year,
		Reason:     pending.Reason,
		Candidates: pending.Ranked,
		Surface:    o.opts.ReviewSurface,
	})
	if entry.err != nil && !errors.Is(entry.err, services.ErrReviewUnavailable) {
		state.memoMu.Lock()
		delete(state.memo, key)
		state.memoMu.Unlock()
	}
	close(entry.done)
	return entry.decision, entry.err
}

func memoKey(q normalize.Query) string {
	return textutil.Fold(q.Title) + "|" + strconv.Itoa(q.Year)
}

func selectionReason(s gate.Selection) string {
	switch sel := s.(type) {
	case gate.AutoSelected:
		return fmt.Sprintf("score %.2f, ai %.2f", sel.Score, sel.AIConfidence)
	case gate.ManualPending:
		return sel.Reason
	case gate.Skipped:
		return sel.Reason
	default:
		return ""
	}
}

type memoEntry struct {
	done     chan struct{}
	decision review.Decision
	err      error
}

type runState struct {
	mu      sync.Mutex
	summary *Summary

	memoMu sync.Mutex
	memo   map[string]*memoEntry
}

func (s *runState) append(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Results = append(s.summary.Results, r)
	s.summary.Counts.add(r)
}

func (s *runState) finish(unprocessed int) *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	slices.SortFunc(s.summary.Results, func(a, b Result) int { return a.Index - b.Index })
	s.summary.Unprocessed = unprocessed
	s.summary.FinishedAt = time.Now()
	return s.summary
}
