package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cinematch/internal/catalog"
	"cinematch/internal/catalog/tmdb"
	"cinematch/internal/normalize"
	"cinematch/internal/services"
)

type fakeSearcher struct {
	mu    sync.Mutex
	pages map[int]*tmdb.Response
	err   error
	calls []tmdb.SearchOptions
}

func (f *fakeSearcher) SearchMovie(_ context.Context, _ string, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.pages[opts.Page]; ok {
		return resp, nil
	}
	return &tmdb.Response{Page: opts.Page, TotalPages: 1}, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func movie(id int64, title, date string) tmdb.Result {
	return tmdb.Result{ID: id, Title: title, ReleaseDate: date, Popularity: float64(id)}
}

func TestRetrieveFiltersByYearTolerance(t *testing.T) {
	searcher := &fakeSearcher{pages: map[int]*tmdb.Response{1: {
		Page:       1,
		TotalPages: 1,
		Results: []tmdb.Result{
			movie(1, "White Fang", "2018-07-01"),
			movie(2, "White Fang", "1991-01-18"),
			movie(3, "White Fang", ""),
			movie(4, "White Fang", "2019-02-02"),
			movie(5, "White Fang", "2016-05-05"),
		},
	}}}
	r := catalog.NewRetriever(searcher, catalog.Options{YearTolerance: 1, CacheSize: -1}, nil)

	got, err := r.Retrieve(context.Background(), normalize.Query{Title: "Beli Ocnjak", Year: 2018})
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	ids := make([]int64, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	want := []int64{1, 3, 4}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestRetrieveWithoutYearKeepsEverything(t *testing.T) {
	searcher := &fakeSearcher{pages: map[int]*tmdb.Response{1: {
		Page:       1,
		TotalPages: 1,
		Results:    []tmdb.Result{movie(1, "Heat", "1995-12-15"), movie(2, "Heat", "1986-03-14")},
	}}}
	r := catalog.NewRetriever(searcher, catalog.Options{YearTolerance: 1}, nil)
	got, err := r.Retrieve(context.Background(), normalize.Query{Title: "Heat"})
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
}

func TestRetrieveCapsAndReadsSecondPage(t *testing.T) {
	first := &tmdb.Response{Page: 1, TotalPages: 3}
	for i := int64(1); i <= 4; i++ {
		first.Results = append(first.Results, movie(i, "Dune", "2021-10-22"))
	}
	second := &tmdb.Response{Page: 2, TotalPages: 3}
	for i := int64(5); i <= 9; i++ {
		second.Results = append(second.Results, movie(i, "Dune", "2021-10-22"))
	}
	searcher := &fakeSearcher{pages: map[int]*tmdb.Response{1: first, 2: second}}
	r := catalog.NewRetriever(searcher, catalog.Options{MaxCandidates: 6}, nil)

	got, err := r.Retrieve(context.Background(), normalize.Query{Title: "Dune", Year: 2021})
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(got) != 6 || got[5].ID != 6 {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if searcher.callCount() != 2 {
		t.Fatalf("searches = %d, want 2", searcher.callCount())
	}
}

func TestRetrieveEmptyIsNotAnError(t *testing.T) {
	r := catalog.NewRetriever(&fakeSearcher{}, catalog.Options{}, nil)
	got, err := r.Retrieve(context.Background(), normalize.Query{Title: "Nothing Here"})
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
}

func TestRetrieveWrapsFailures(t *testing.T) {
	r := catalog.NewRetriever(&fakeSearcher{err: errors.New("boom")}, catalog.Options{}, nil)
	_, err := r.Retrieve(context.Background(), normalize.Query{Title: "Heat"})
	if !errors.Is(err, services.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestRetrieveCachesPerTitleAndYear(t *testing.T) {
	searcher := &fakeSearcher{pages: map[int]*tmdb.Response{1: {
		Page: 1, TotalPages: 1, Results: []tmdb.Result{movie(1, "Heat", "1995-12-15")},
	}}}
	r := catalog.NewRetriever(searcher, catalog.Options{CacheSize: 8}, nil)
	ctx := context.Background()

	for range 3 {
		if _, err := r.Retrieve(ctx, normalize.Query{Title: "Heat", Year: 1995}); err != nil {
			t.Fatalf("Retrieve returned error: %v", err)
		}
	}
	if searcher.callCount() != 1 {
		t.Fatalf("searches = %d, want 1", searcher.callCount())
	}
	if _, err := r.Retrieve(ctx, normalize.Query{Title: "heat", Year: 1995}); err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if searcher.callCount() != 1 {
		t.Fatal("folded title should share the cache entry")
	}
	if _, err := r.Retrieve(ctx, normalize.Query{Title: "Heat"}); err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if searcher.callCount() != 2 {
		t.Fatal("different year should miss the cache")
	}
}

func TestRetrieveHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := catalog.NewRetriever(&fakeSearcher{}, catalog.Options{RequestsPerSecond: 1}, nil)
	_, err := r.Retrieve(ctx, normalize.Query{Title: "Heat"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCandidateDisplayTitle(t *testing.T) {
	if got := (catalog.Candidate{Title: "Heat", Year: 1995}).DisplayTitle(); got != "Heat (1995)" {
		t.Fatalf("DisplayTitle = %q", got)
	}
	if got := (catalog.Candidate{Title: "Heat"}).DisplayTitle(); got != "Heat" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}
