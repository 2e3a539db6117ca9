package radarr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cinematch/internal/library/radarr"
	"cinematch/internal/retry"
)

func newClient(t *testing.T, handler http.Handler) *radarr.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := radarr.New(server.URL+"/", "secret", radarr.WithRetryPolicy(retry.Policy{Attempts: 2, BaseDelay: time.Millisecond}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresURLAndKey(t *testing.T) {
	if _, err := radarr.New("", "key"); err == nil {
		t.Fatal("expected error without url")
	}
	if _, err := radarr.New("http://radarr:7878", " "); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestLookupByTMDB(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		if r.URL.Path != "/api/v3/movie" || r.URL.Query().Get("tmdbId") != "603" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = w.Write([]byte(`[{"id":7,"title":"The Matrix","tmdbId":603,"year":1999,"tags":[]}]`))
	}))
	movie, err := client.LookupByTMDB(context.Background(), 603)
	if err != nil {
		t.Fatalf("LookupByTMDB returned error: %v", err)
	}
	if movie == nil || movie.ID != 7 {
		t.Fatalf("unexpected movie %#v", movie)
	}
}

func TestLookupByTMDBMissing(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	movie, err := client.LookupByTMDB(context.Background(), 603)
	if err != nil || movie != nil {
		t.Fatalf("expected nil movie, got %#v, %v", movie, err)
	}
}

func TestAddMovieSendsPayload(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v3/movie" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var got map[string]any
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if got["tmdbId"] != float64(603) || got["rootFolderPath"] != "/movies" || got["qualityProfileId"] != float64(4) {
			t.Errorf("unexpected payload %v", got)
		}
		opts, _ := got["addOptions"].(map[string]any)
		if opts["monitor"] != "movieOnly" || opts["searchForMovie"] != true {
			t.Errorf("unexpected addOptions %v", opts)
		}
		if tags, ok := got["tags"].([]any); !ok || len(tags) != 0 {
			t.Errorf("tags should be an empty array, got %v", got["tags"])
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":12,"title":"The Matrix","tmdbId":603}`))
	}))
	created, err := client.AddMovie(context.Background(), radarr.Movie{
		Title:            "The Matrix",
		TMDBID:           603,
		RootFolderPath:   "/movies",
		QualityProfileID: 4,
		Monitored:        true,
		AddOptions:       &radarr.AddOptions{SearchForMovie: true, Monitor: "movieOnly"},
	})
	if err != nil {
		t.Fatalf("AddMovie returned error: %v", err)
	}
	if created.ID != 12 {
		t.Fatalf("unexpected created movie %#v", created)
	}
}

func TestAddMovieAlreadyExists(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`[{"propertyName":"TmdbId","errorMessage":"This movie has already been added","errorCode":"MovieExistsValidator"}]`))
	}))
	_, err := client.AddMovie(context.Background(), radarr.Movie{Title: "The Matrix", TMDBID: 603})
	if !radarr.IsAlreadyExists(err) {
		t.Fatalf("expected already-exists error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("400 must not be retried, calls = %d", calls.Load())
	}
}

func TestOtherBadRequestIsNotAlreadyExists(t *testing.T) {
	err := &radarr.StatusError{StatusCode: http.StatusBadRequest, Body: `[{"propertyName":"RootFolderPath","errorMessage":"Invalid Path","errorCode":"PathValidator"}]`}
	if err.AlreadyExists() {
		t.Fatal("path validation failure reported as already exists")
	}
	if !(&radarr.StatusError{StatusCode: http.StatusBadRequest, Body: "This movie has already been added"}).AlreadyExists() {
		t.Fatal("plain text rejection not recognized")
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"label":"cinematch"}]`))
	}))
	tags, err := client.Tags(context.Background())
	if err != nil {
		t.Fatalf("Tags returned error: %v", err)
	}
	if len(tags) != 1 || calls.Load() != 2 {
		t.Fatalf("tags=%v calls=%d", tags, calls.Load())
	}
}

func TestCreateTagAndCommand(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/tag":
			var tag radarr.Tag
			_ = json.NewDecoder(r.Body).Decode(&tag)
			_ = json.NewEncoder(w).Encode(radarr.Tag{ID: 5, Label: tag.Label})
		case "/api/v3/command":
			var cmd radarr.Command
			_ = json.NewDecoder(r.Body).Decode(&cmd)
			if cmd.Name != radarr.CommandDownloadedMoviesScan || cmd.Path != "/downloads/Heat" || cmd.ImportMode != "move" {
				t.Errorf("unexpected command %#v", cmd)
			}
			cmd.ID = 99
			cmd.Status = "queued"
			_ = json.NewEncoder(w).Encode(cmd)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	tag, err := client.CreateTag(context.Background(), "cinematch")
	if err != nil || tag.ID != 5 || tag.Label != "cinematch" {
		t.Fatalf("CreateTag = %#v, %v", tag, err)
	}
	cmd, err := client.RunCommand(context.Background(), radarr.Command{
		Name:       radarr.CommandDownloadedMoviesScan,
		Path:       "/downloads/Heat",
		ImportMode: "move",
	})
	if err != nil || cmd.ID != 99 {
		t.Fatalf("RunCommand = %#v, %v", cmd, err)
	}
}

func TestSystemStatusSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	_, err := client.SystemStatus(context.Background())
	var statusErr *radarr.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}
