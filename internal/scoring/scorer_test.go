package scoring

import (
	"math"
	"testing"

	"cinematch/internal/catalog"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScoreWorkedExample(t *testing.T) {
	s := NewScorer(DefaultWeights(), 1)
	ranked := s.Score(Query{Title: "Beli Ocnjak", Year: 2018}, []catalog.Candidate{
		{ID: 520, Title: "White Fang", OriginalTitle: "Beli očnjak", Year: 2018, Popularity: 3.2, OriginalLanguage: "sr"},
	})
	if len(ranked) != 1 {
		t.Fatalf("expected one scored candidate, got %d", len(ranked))
	}
	got := ranked[0]
	if !approx(got.Components.Title, 1) || !approx(got.Components.Year, 1) || !approx(got.Components.Popularity, 1) {
		t.Fatalf("unexpected components: %+v", got.Components)
	}
	if !approx(got.Components.Language, 0.5) {
		t.Fatalf("language = %v, want neutral 0.5", got.Components.Language)
	}
	if !approx(got.Score, 0.95) {
		t.Fatalf("score = %v, want 0.95", got.Score)
	}

	ranked = s.Score(Query{Title: "Beli Ocnjak", Year: 2018, LanguageHints: []string{"sr"}}, []catalog.Candidate{got.Candidate})
	if !approx(ranked[0].Score, 1) {
		t.Fatalf("score with language hint = %v, want 1", ranked[0].Score)
	}
}

func TestScoreBounds(t *testing.T) {
	s := NewScorer(Weights{Title: 3, Year: 1, Popularity: 1, Language: 1}, 2)
	candidates := []catalog.Candidate{
		{ID: 1, Title: "Heat", Year: 1995, Popularity: 45},
		{ID: 2, Title: "Heat", Year: 1986, Popularity: 4},
		{ID: 3, Title: "The Heat", Year: 2013, Popularity: 30},
		{ID: 4, Title: "", Year: 0, Popularity: 0},
		{ID: 5, Title: "Heatwave", OriginalTitle: "Vague de chaleur", Year: 1996, Popularity: 1e9, OriginalLanguage: "fr"},
	}
	for _, q := range []Query{{Title: "Heat", Year: 1995}, {Title: "Heat"}, {Title: "x"}} {
		for _, sc := range s.Score(q, candidates) {
			for name, v := range map[string]float64{
				"score":      sc.Score,
				"title":      sc.Components.Title,
				"year":       sc.Components.Year,
				"popularity": sc.Components.Popularity,
				"language":   sc.Components.Language,
			} {
				if v < 0 || v > 1 || math.IsNaN(v) {
					t.Fatalf("%s out of range for %+v: %v", name, sc.Candidate, v)
				}
			}
		}
	}
}

func TestScoreOrderingIsDeterministic(t *testing.T) {
	s := NewScorer(DefaultWeights(), 1)
	q := Query{Title: "Solaris", Year: 0}
	a := catalog.Candidate{ID: 9, Title: "Solaris", Popularity: 5}
	b := catalog.Candidate{ID: 3, Title: "Solaris", Popularity: 5}
	c := catalog.Candidate{ID: 7, Title: "Solaris", Popularity: 8}

	first := s.Score(q, []catalog.Candidate{a, b, c})
	second := s.Score(q, []catalog.Candidate{c, a, b})
	want := []int64{7, 3, 9}
	for i, id := range want {
		if first[i].Candidate.ID != id || second[i].Candidate.ID != id {
			t.Fatalf("order = [%d %d %d] / [%d %d %d], want %v",
				first[0].Candidate.ID, first[1].Candidate.ID, first[2].Candidate.ID,
				second[0].Candidate.ID, second[1].Candidate.ID, second[2].Candidate.ID, want)
		}
	}
}

func TestScoreTitleSimilarityIsMonotonic(t *testing.T) {
	s := NewScorer(DefaultWeights(), 1)
	ranked := s.Score(Query{Title: "The Matrix", Year: 1999}, []catalog.Candidate{
		{ID: 1, Title: "Matrix Reloaded", Year: 1999, Popularity: 10},
		{ID: 2, Title: "The Matrix", Year: 1999, Popularity: 10},
	})
	if ranked[0].Candidate.ID != 2 {
		t.Fatalf("exact title should rank first, got %d", ranked[0].Candidate.ID)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Fatalf("scores not separated: %v vs %v", ranked[0].Score, ranked[1].Score)
	}
}

func TestCompositeIsMonotonicInEachComponent(t *testing.T) {
	query := Query{Title: "Beli Ocnjak", Year: 2018, LanguageHints: []string{"sr"}}
	base := catalog.Candidate{ID: 1, Title: "White Tooth", Year: 2015, Popularity: 5, OriginalLanguage: "fr"}
	// anchor fixes the popularity maximum for the whole set
	anchor := catalog.Candidate{ID: 99, Title: "Unrelated", Popularity: 1000}

	tests := []struct {
		name   string
		modify func(c *catalog.Candidate)
		varied func(Components) float64
	}{
		{"title", func(c *catalog.Candidate) { c.Title = "Beli Ocnjak" }, func(c Components) float64 { return c.Title }},
		{"year inside tolerance", func(c *catalog.Candidate) { c.Year = 2017 }, func(c Components) float64 { return c.Year }},
		{"exact year", func(c *catalog.Candidate) { c.Year = 2018 }, func(c Components) float64 { return c.Year }},
		{"popularity", func(c *catalog.Candidate) { c.Popularity = 300 }, func(c Components) float64 { return c.Popularity }},
		{"language", func(c *catalog.Candidate) { c.OriginalLanguage = "sr" }, func(c Components) float64 { return c.Language }},
	}
	weightSets := map[string]Weights{
		"default":    DefaultWeights(),
		"title only": {Title: 1},
		"year heavy": {Title: 0.2, Year: 0.6, Popularity: 0.1, Language: 0.1},
		"uniform":    {Title: 1, Year: 1, Popularity: 1, Language: 1},
	}
	for weightName, weights := range weightSets {
		s := NewScorer(weights, 3)
		for _, tt := range tests {
			t.Run(weightName+"/"+tt.name, func(t *testing.T) {
				improved := base
				improved.ID = 2
				tt.modify(&improved)

				ranked := s.Score(query, []catalog.Candidate{base, improved, anchor})
				before, _ := Find(ranked, base.ID)
				after, _ := Find(ranked, improved.ID)
				if tt.varied(after.Components) <= tt.varied(before.Components) {
					t.Fatalf("component did not rise: %+v -> %+v", before.Components, after.Components)
				}
				if after.Score < before.Score {
					t.Fatalf("composite fell from %v to %v", before.Score, after.Score)
				}
			})
		}
	}
}

func TestScoreEmpty(t *testing.T) {
	if got := NewScorer(DefaultWeights(), 1).Score(Query{Title: "x"}, nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestYearProximity(t *testing.T) {
	tests := []struct {
		query, candidate, tolerance int
		want                        float64
	}{
		{2018, 2018, 1, 1},
		{2018, 2019, 1, 0},
		{2018, 2017, 2, 0.5},
		{2018, 2020, 2, 0},
		{2018, 2019, 0, 0},
		{0, 2018, 1, 0.5},
		{2018, 0, 1, 0},
	}
	for _, tt := range tests {
		if got := YearProximity(tt.query, tt.candidate, tt.tolerance); !approx(got, tt.want) {
			t.Errorf("YearProximity(%d, %d, %d) = %v, want %v", tt.query, tt.candidate, tt.tolerance, got, tt.want)
		}
	}
}

func TestPopularityScore(t *testing.T) {
	if PopularityScore(5, 0) != 0 {
		t.Fatal("zero max should score 0")
	}
	if !approx(PopularityScore(10, 10), 1) {
		t.Fatal("max popularity should score 1")
	}
	low, high := PopularityScore(1, 100), PopularityScore(50, 100)
	if low >= high {
		t.Fatalf("popularity not monotonic: %v >= %v", low, high)
	}
}

func TestLanguageScore(t *testing.T) {
	if LanguageScore("sr", []string{"en", "sr"}) != 1 {
		t.Fatal("hinted language should score 1")
	}
	if LanguageScore("sr", nil) != 0.5 {
		t.Fatal("unhinted language should be neutral")
	}
}

func TestNewScorerRejectsInvalidWeights(t *testing.T) {
	s := NewScorer(Weights{Title: -1, Year: 1}, -3)
	if s.weights != DefaultWeights() || s.yearTolerance != 0 {
		t.Fatalf("unexpected scorer: %+v", s)
	}
}

func TestTopAndFind(t *testing.T) {
	ranked := []ScoredCandidate{
		{Candidate: catalog.Candidate{ID: 1}},
		{Candidate: catalog.Candidate{ID: 2}},
		{Candidate: catalog.Candidate{ID: 3}},
	}
	if len(Top(ranked, 2)) != 2 || len(Top(ranked, 10)) != 3 {
		t.Fatal("Top returned wrong length")
	}
	if sc, ok := Find(ranked, 2); !ok || sc.Candidate.ID != 2 {
		t.Fatal("Find did not locate id 2")
	}
	if _, ok := Find(ranked, 9); ok {
		t.Fatal("Find located a missing id")
	}
}
