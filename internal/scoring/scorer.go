// Package scoring ranks catalog candidates against a normalized query.
//
// Every component score lies in [0,1] and the composite is the weighted mean
// of the components, so it lies in [0,1] as well. Scoring is pure: the same
// query and candidates always produce the same ranking.
package scoring

import (
	"cmp"
	"math"
	"slices"

	"cinematch/internal/catalog"
	"cinematch/internal/textutil"
)

// Weights set the contribution of each component to the composite score.
type Weights struct {
	Title      float64 `json:"title"`
	Year       float64 `json:"year"`
	Popularity float64 `json:"popularity"`
	Language   float64 `json:"language"`
}

// DefaultWeights favours the title, then the year.
func DefaultWeights() Weights {
	return Weights{Title: 0.5, Year: 0.25, Popularity: 0.15, Language: 0.1}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Title + w.Year + w.Popularity + w.Language
}

// Components holds the per-signal scores, each in [0,1].
type Components struct {
	Title      float64 `json:"title"`
	Year       float64 `json:"year"`
	Popularity float64 `json:"popularity"`
	Language   float64 `json:"language"`
}

// ScoredCandidate is a candidate with its deterministic score.
type ScoredCandidate struct {
	Candidate  catalog.Candidate `json:"candidate"`
	Score      float64           `json:"score"`
	Components Components        `json:"components"`
}

// Query is what the scorer needs to know about the file.
type Query struct {
	Title         string
	Year          int
	LanguageHints []string
}

// Scorer computes composite scores.
type Scorer struct {
	weights       Weights
	yearTolerance int
}

// NewScorer builds a Scorer. Weights that are negative or sum to zero are
// replaced by DefaultWeights.
func NewScorer(weights Weights, yearTolerance int) *Scorer {
	if weights.Title < 0 || weights.Year < 0 || weights.Popularity < 0 || weights.Language < 0 || weights.Sum() <= 0 {
		weights = DefaultWeights()
	}
	if yearTolerance < 0 {
		yearTolerance = 0
	}
	return &Scorer{weights: weights, yearTolerance: yearTolerance}
}

// Score ranks candidates by composite score descending, breaking ties by
// popularity descending and then by catalog id ascending.
func (s *Scorer) Score(q Query, candidates []catalog.Candidate) []ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}
	maxPopularity := 0.0
	for _, c := range candidates {
		maxPopularity = max(maxPopularity, c.Popularity)
	}
	sum := s.weights.Sum()

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		comp := Components{
			Title:      TitleScore(q.Title, c),
			Year:       YearProximity(q.Year, c.Year, s.yearTolerance),
			Popularity: PopularityScore(c.Popularity, maxPopularity),
			Language:   LanguageScore(c.OriginalLanguage, q.LanguageHints),
		}
		composite := (s.weights.Title*comp.Title +
			s.weights.Year*comp.Year +
			s.weights.Popularity*comp.Popularity +
			s.weights.Language*comp.Language) / sum
		scored = append(scored, ScoredCandidate{Candidate: c, Score: clamp01(composite), Components: comp})
	}

	slices.SortStableFunc(scored, func(a, b ScoredCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Candidate.Popularity, a.Candidate.Popularity); c != 0 {
			return c
		}
		return cmp.Compare(a.Candidate.ID, b.Candidate.ID)
	})
	return scored
}

// TitleScore is the best similarity between the query and either the
// localized or the original title.
func TitleScore(query string, c catalog.Candidate) float64 {
	score := textutil.TitleSimilarity(query, c.Title)
	if c.OriginalTitle != "" && c.OriginalTitle != c.Title {
		score = max(score, textutil.TitleSimilarity(query, c.OriginalTitle))
	}
	return clamp01(score)
}

// YearProximity is 1 for the same year and falls linearly to 0 at the
// tolerance boundary. A query without a year is neutral (0.5); an undated
// candidate scores 0.
func YearProximity(queryYear, candidateYear, tolerance int) float64 {
	if queryYear <= 0 {
		return 0.5
	}
	if candidateYear <= 0 {
		return 0
	}
	diff := queryYear - candidateYear
	if diff < 0 {
		diff = -diff
	}
	if diff == 0 {
		return 1
	}
	if tolerance <= 0 || diff >= tolerance {
		return 0
	}
	return 1 - float64(diff)/float64(tolerance)
}

// PopularityScore scales popularity logarithmically against the most popular
// candidate in the set.
func PopularityScore(popularity, maxPopularity float64) float64 {
	if maxPopularity <= 0 || popularity <= 0 {
		return 0
	}
	return clamp01(math.Log1p(popularity) / math.Log1p(maxPopularity))
}

// LanguageScore rewards a candidate whose original language was hinted by
// the filename. Without a hit it is neutral.
func LanguageScore(originalLanguage string, hints []string) float64 {
	if originalLanguage == "" {
		return 0.5
	}
	if slices.Contains(hints, originalLanguage) {
		return 1
	}
	return 0.5
}

// Top returns at most n leading entries of ranked.
func Top(ranked []ScoredCandidate, n int) []ScoredCandidate {
	if n < 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// Find returns the scored entry for a catalog id.
func Find(ranked []ScoredCandidate, id int64) (ScoredCandidate, bool) {
	for _, sc := range ranked {
		if sc.Candidate.ID == id {
			return sc, true
		}
	}
	return ScoredCandidate{}, false
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
