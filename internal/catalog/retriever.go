package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"cinematch/internal/catalog/tmdb"
	"cinematch/internal/logging"
	"cinematch/internal/normalize"
	"cinematch/internal/services"
	"cinematch/internal/textutil"
)

const (
	defaultMaxCandidates = 10
	maxSearchPages       = 2
)

// Searcher is the catalog search operation the retriever depends on.
type Searcher interface {
	SearchMovie(ctx context.Context, query string, opts tmdb.SearchOptions) (*tmdb.Response, error)
}

// Options tune retrieval. Zero values fall back to defaults; a negative
// CacheSize disables caching and a non-positive RequestsPerSecond disables
// rate limiting.
type Options struct {
	MaxCandidates     int
	YearTolerance     int
	RequestsPerSecond float64
	CacheSize         int
	CacheTTL          time.Duration
}

// Retriever finds candidate movies for a query.
type Retriever struct {
	searcher Searcher
	opts     Options
	limiter  *rate.Limiter
	cache    *expirable.LRU[string, []Candidate]
	logger   *slog.Logger
}

// NewRetriever constructs a Retriever around searcher.
func NewRetriever(searcher Searcher, opts Options, logger *slog.Logger) *Retriever {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = defaultMaxCandidates
	}
	if opts.YearTolerance < 0 {
		opts.YearTolerance = 0
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	r := &Retriever{
		searcher: searcher,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logging.NewComponentLogger(logger, "catalog"),
	}
	if opts.CacheSize >= 0 {
		r.cache = expirable.NewLRU[string, []Candidate](opts.CacheSize, nil, opts.CacheTTL)
	}
	return r
}

// Retrieve returns up to MaxCandidates matches in catalog relevance order. An
// empty slice means the catalog had nothing; errors are marked
// services.ErrCatalogUnavailable unless ctx ended.
func (r *Retriever) Retrieve(ctx context.Context, q normalize.Query) ([]Candidate, error) {
	logger := logging.WithContext(ctx, r.logger)
	key := cacheKey(q)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			logger.Debug("catalog cache hit", logging.String("query", q.Title), logging.Int("candidates", len(cached)))
			return append([]Candidate(nil), cached...), nil
		}
	}

	candidates := make([]Candidate, 0, r.opts.MaxCandidates)
	seen := make(map[int64]struct{})
	for page := 1; page <= maxSearchPages && len(candidates) < r.opts.MaxCandidates; page++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := r.searcher.SearchMovie(ctx, q.Title, tmdb.SearchOptions{Page: page})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, services.Wrap(services.ErrCatalogUnavailable, "retrieve", "search", fmt.Sprintf("title %q", q.Title), err)
		}
		for _, result := range resp.Results {
			if _, dup := seen[result.ID]; dup {
				continue
			}
			candidate := FromTMDB(result)
			if !r.withinTolerance(q.Year, candidate.Year) {
				continue
			}
			seen[result.ID] = struct{}{}
			candidates = append(candidates, candidate)
			if len(candidates) == r.opts.MaxCandidates {
				break
			}
		}
		logger.Debug("catalog search page",
			logging.String("query", q.Title),
			logging.Int("page", page),
			logging.Int("results", len(resp.Results)),
			logging.Duration("latency", time.Since(start)))
		if page >= resp.TotalPages {
			break
		}
	}

	logger.Info("catalog candidates retrieved",
		logging.String("query", q.Title),
		logging.Int("year", q.Year),
		logging.Int("candidates", len(candidates)))
	if r.cache != nil {
		r.cache.Add(key, append([]Candidate(nil), candidates...))
	}
	return candidates, nil
}

// withinTolerance keeps undated entries and, without a query year, everything.
func (r *Retriever) withinTolerance(queryYear, candidateYear int) bool {
	if queryYear <= 0 || candidateYear <= 0 {
		return true
	}
	diff := queryYear - candidateYear
	if diff < 0 {
		diff = -diff
	}
	return diff <= r.opts.YearTolerance
}

func cacheKey(q normalize.Query) string {
	return textutil.Fold(q.Title) + "|" + strconv.Itoa(q.Year)
}
