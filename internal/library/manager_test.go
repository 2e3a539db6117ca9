package library

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"cinematch/internal/catalog"
	"cinematch/internal/catalog/tmdb"
	"cinematch/internal/library/radarr"
	"cinematch/internal/logging"
	"cinematch/internal/services"
)

type fakeClient struct {
	mu        sync.Mutex
	movies    map[int64]*radarr.Movie
	nextID    int64
	added     []radarr.Movie
	tags      []radarr.Tag
	created   []string
	tagCalls  int
	commands  []radarr.Command
	lookupErr error
	addErr    error
	addDelay  time.Duration
}

func newFakeClient() *fakeClient {
	return &fakeClient{movies: map[int64]*radarr.Movie{}, nextID: 100}
}

func (f *fakeClient) LookupByTMDB(_ context.Context, id int64) (*radarr.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.movies[id], nil
}

func (f *fakeClient) AddMovie(_ context.Context, movie radarr.Movie) (*radarr.Movie, error) {
	if f.addDelay > 0 {
		time.Sleep(f.addDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	if _, ok := f.movies[movie.TMDBID]; ok {
		return nil, &radarr.StatusError{StatusCode: http.StatusBadRequest, Body: "This movie has already been added"}
	}
	f.nextID++
	movie.ID = f.nextID
	f.movies[movie.TMDBID] = &movie
	f.added = append(f.added, movie)
	return &movie, nil
}

func (f *fakeClient) Tags(context.Context) ([]radarr.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagCalls++
	return append([]radarr.Tag(nil), f.tags...), nil
}

func (f *fakeClient) CreateTag(_ context.Context, label string) (*radarr.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tag := radarr.Tag{ID: len(f.tags) + 1, Label: label}
	f.tags = append(f.tags, tag)
	f.created = append(f.created, label)
	return &tag, nil
}

func (f *fakeClient) RunCommand(_ context.Context, cmd radarr.Command) (*radarr.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd.ID = int64(len(f.commands) + 1)
	f.commands = append(f.commands, cmd)
	return &cmd, nil
}

var matrix = catalog.Candidate{ID: 603, Title: "The Matrix", Year: 1999, Overview: "A hacker learns the truth."}

func testPlacement() Placement {
	return Placement{
		RootFolder:          "/movies",
		QualityProfileID:    4,
		MinimumAvailability: "released",
		Monitored:           true,
	}
}

func TestEnsureAddsMissingMovie(t *testing.T) {
	client := newFakeClient()
	m := NewManager(client, testPlacement(), logging.NewNop())

	outcome := m.Ensure(context.Background(), matrix)
	added, ok := outcome.(Added)
	if !ok {
		t.Fatalf("expected Added, got %#v", outcome)
	}
	if added.LibraryID != 101 {
		t.Fatalf("unexpected library id %d", added.LibraryID)
	}
	got := client.added[0]
	if got.TitleSlug != "the-matrix-1999" || got.RootFolderPath != "/movies" || got.QualityProfileID != 4 {
		t.Fatalf("unexpected payload %#v", got)
	}
	if got.OriginalTitle != "The Matrix" {
		t.Fatalf("expected original title fallback, got %q", got.OriginalTitle)
	}
	if got.AddOptions == nil || got.AddOptions.Monitor != "movieOnly" || got.AddOptions.SearchForMovie {
		t.Fatalf("unexpected add options %#v", got.AddOptions)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Fatalf("expected empty tag list, got %#v", got.Tags)
	}
}

type fakeDetails struct {
	movies map[int64]*tmdb.Details
	err    error
	calls  int
}

func (f *fakeDetails) MovieDetails(_ context.Context, id int64) (*tmdb.Details, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.movies[id], nil
}

func TestEnsureEnrichesFromCatalogDetails(t *testing.T) {
	full := &tmdb.Details{
		Result:     tmdb.Result{ID: 603, Title: "The Matrix", OriginalTitle: "The Matrix", Overview: "Full overview."},
		IMDbID:     "tt0133093",
		Runtime:    136,
		PosterPath: "/matrix.jpg",
	}
	tests := []struct {
		name     string
		details  *fakeDetails
		imdb     string
		runtime  int
		overview string
		images   int
	}{
		{name: "details found", details: &fakeDetails{movies: map[int64]*tmdb.Details{603: full}}, imdb: "tt0133093", runtime: 136, overview: "Full overview.", images: 1},
		{name: "unknown id", details: &fakeDetails{}, overview: matrix.Overview},
		{name: "details unavailable", details: &fakeDetails{err: errors.New("tmdb down")}, overview: matrix.Overview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			m := NewManager(client, testPlacement(), logging.NewNop(), WithDetails(tt.details))

			if _, ok := m.Ensure(context.Background(), matrix).(Added); !ok {
				t.Fatal("expected Added")
			}
			got := client.added[0]
			if got.IMDbID != tt.imdb || got.Runtime != tt.runtime || got.Overview != tt.overview || len(got.Images) != tt.images {
				t.Fatalf("unexpected payload %#v", got)
			}
			if tt.images > 0 && got.Images[0].RemoteURL != tmdb.ImageBaseURL+"/matrix.jpg" {
				t.Fatalf("unexpected poster %#v", got.Images)
			}
		})
	}
}

func TestEnsureSkipsDetailsForExistingMovie(t *testing.T) {
	client := newFakeClient()
	client.movies[603] = &radarr.Movie{ID: 7, TMDBID: 603}
	details := &fakeDetails{}
	m := NewManager(client, testPlacement(), logging.NewNop(), WithDetails(details))

	if _, ok := m.Ensure(context.Background(), matrix).(AlreadyPresent); !ok {
		t.Fatal("expected AlreadyPresent")
	}
	if details.calls != 0 {
		t.Fatalf("details fetched %d times for an existing movie", details.calls)
	}
}

func TestEnsureReportsExistingMovie(t *testing.T) {
	client := newFakeClient()
	client.movies[603] = &radarr.Movie{ID: 7, TMDBID: 603}
	m := NewManager(client, testPlacement(), logging.NewNop())

	outcome := m.Ensure(context.Background(), matrix)
	if present, ok := outcome.(AlreadyPresent); !ok || present.LibraryID != 7 {
		t.Fatalf("expected AlreadyPresent{7}, got %#v", outcome)
	}
	if len(client.added) != 0 {
		t.Fatal("expected no add call")
	}
}

func TestEnsureConcurrentCallsAddOnce(t *testing.T) {
	client := newFakeClient()
	client.addDelay = 20 * time.Millisecond
	m := NewManager(client, testPlacement(), logging.NewNop())

	const workers = 8
	outcomes := make([]Outcome, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = m.Ensure(context.Background(), matrix)
		}()
	}
	wg.Wait()

	if len(client.added) != 1 {
		t.Fatalf("expected exactly one add, got %d", len(client.added))
	}
	var added, present int
	for _, o := range outcomes {
		switch o.(type) {
		case Added:
			added++
		case AlreadyPresent:
			present++
		default:
			t.Fatalf("unexpected outcome %#v", o)
		}
	}
	if added != 1 || present != workers-1 {
		t.Fatalf("added=%d present=%d", added, present)
	}
	if len(m.locks.slots) != 0 {
		t.Fatalf("expected lock table to drain, got %d entries", len(m.locks.slots))
	}
}

type racingClient struct {
	*fakeClient
	lookups int
}

func (r *racingClient) LookupByTMDB(ctx context.Context, id int64) (*radarr.Movie, error) {
	r.lookups++
	if r.lookups == 1 {
		// Another writer adds the movie after our first lookup.
		r.movies[id] = &radarr.Movie{ID: 55, TMDBID: id}
		return nil, nil
	}
	return r.fakeClient.LookupByTMDB(ctx, id)
}

func TestEnsureTreatsAlreadyExistsAsPresent(t *testing.T) {
	client := &racingClient{fakeClient: newFakeClient()}
	m := NewManager(client, testPlacement(), logging.NewNop())

	outcome := m.Ensure(context.Background(), matrix)
	if present, ok := outcome.(AlreadyPresent); !ok || present.LibraryID != 55 {
		t.Fatalf("expected AlreadyPresent{55}, got %#v", outcome)
	}
}

func TestEnsureFailureIsMarked(t *testing.T) {
	client := newFakeClient()
	client.lookupErr = errors.New("connection refused")
	m := NewManager(client, testPlacement(), logging.NewNop())

	outcome := m.Ensure(context.Background(), matrix)
	failed, ok := outcome.(Failed)
	if !ok {
		t.Fatalf("expected Failed, got %#v", outcome)
	}
	if !errors.Is(failed.Cause, services.ErrLibraryUnavailable) {
		t.Fatalf("expected library unavailable marker, got %v", failed.Cause)
	}
	if Label(outcome) != "failed" {
		t.Fatalf("unexpected label %q", Label(outcome))
	}
}

func TestEnsureResolvesTagsOnce(t *testing.T) {
	client := newFakeClient()
	client.tags = []radarr.Tag{{ID: 1, Label: "cinematch"}}
	placement := testPlacement()
	placement.Tags = []string{"Cinematch", "imported", " "}
	m := NewManager(client, placement, logging.NewNop())

	m.Ensure(context.Background(), matrix)
	m.Ensure(context.Background(), catalog.Candidate{ID: 604, Title: "The Matrix Reloaded", Year: 2003})

	if client.tagCalls != 1 {
		t.Fatalf("expected tags fetched once, got %d", client.tagCalls)
	}
	if len(client.created) != 1 || client.created[0] != "imported" {
		t.Fatalf("unexpected created tags %v", client.created)
	}
	for _, movie := range client.added {
		if len(movie.Tags) != 2 || movie.Tags[0] != 1 || movie.Tags[1] != 2 {
			t.Fatalf("unexpected tags %v", movie.Tags)
		}
	}
}

func TestEnsureHonorsCancelledContext(t *testing.T) {
	client := newFakeClient()
	m := NewManager(client, testPlacement(), logging.NewNop())
	release, err := m.locks.lock(context.Background(), matrix.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	outcome := m.Ensure(ctx, matrix)
	failed, ok := outcome.(Failed)
	if !ok || !errors.Is(failed.Cause, context.DeadlineExceeded) {
		t.Fatalf("expected deadline failure, got %#v", outcome)
	}
}

func TestRequestImport(t *testing.T) {
	client := newFakeClient()
	m := NewManager(client, testPlacement(), logging.NewNop())

	if err := m.RequestImport(context.Background(), 7, "/incoming/Matrix", "none"); err != nil {
		t.Fatalf("none: %v", err)
	}
	if len(client.commands) != 0 {
		t.Fatal("expected no command for none")
	}
	if err := m.RequestImport(context.Background(), 7, "/incoming/Matrix", "Move"); err != nil {
		t.Fatalf("move: %v", err)
	}
	cmd := client.commands[0]
	if cmd.Name != radarr.CommandDownloadedMoviesScan || cmd.Path != "/incoming/Matrix" || cmd.ImportMode != "Move" {
		t.Fatalf("unexpected command %#v", cmd)
	}
	if err := m.RequestImport(context.Background(), 7, "/x", "hardlink"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTitleSlug(t *testing.T) {
	tests := []struct {
		title string
		year  int
		want  string
	}{
		{"The Matrix", 1999, "the-matrix-1999"},
		{"Amélie", 2001, "amelie-2001"},
		{"Léon: The Professional", 1994, "leon-the-professional-1994"},
		{"Untitled", 0, "untitled"},
	}
	for _, tt := range tests {
		if got := TitleSlug(tt.title, tt.year); got != tt.want {
			t.Errorf("TitleSlug(%q, %d) = %q, want %q", tt.title, tt.year, got, tt.want)
		}
	}
}
