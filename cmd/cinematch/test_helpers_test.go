package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"cinematch/internal/config"
	"cinematch/internal/testsupport"
)

type tmdbMovie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	ReleaseDate      string  `json:"release_date"`
	Popularity       float64 `json:"popularity"`
	IMDbID           string  `json:"imdb_id,omitempty"`
}

// newFakeTMDB answers /search/movie from byQuery and /movie/{id} from every
// movie listed there; unknown queries get no results.
func newFakeTMDB(t *testing.T, byQuery map[string][]tmdbMovie) *httptest.Server {
	t.Helper()
	byID := map[string]tmdbMovie{}
	for _, movies := range byQuery {
		for _, m := range movies {
			byID["/movie/"+strconv.FormatInt(m.ID, 10)] = m
		}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if movie, ok := byID[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(movie)
			return
		}
		if r.URL.Path != "/search/movie" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		results := byQuery[r.URL.Query().Get("query")]
		if results == nil {
			results = []tmdbMovie{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"page":          1,
			"results":       results,
			"total_pages":   1,
			"total_results": len(results),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newFakeLLM picks the first submitted candidate with the given confidence
// and answers health probes.
func newFakeLLM(t *testing.T, confidence float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		content := `{"index":0,"confidence":` + strconv.FormatFloat(confidence, 'f', 2, 64) + `,"rationale":"title and year agree"}`
		if strings.Contains(string(body), `\"ok\":true`) {
			content = `{"ok":true}`
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeRadarr struct {
	mu     sync.Mutex
	movies map[int64]map[string]any
	nextID int64
	srv    *httptest.Server
}

func newFakeRadarr(t *testing.T) *fakeRadarr {
	t.Helper()
	f := &fakeRadarr{movies: map[int64]map[string]any{}, nextID: 1}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRadarr) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Api-Key") != "test-radarr" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/api/v3/system/status":
		_ = json.NewEncoder(w).Encode(map[string]string{"appName": "Radarr", "version": "5.8.3"})
	case r.URL.Path == "/api/v3/tag":
		_, _ = w.Write([]byte("[]"))
	case r.URL.Path == "/api/v3/movie" && r.Method == http.MethodGet:
		id, _ := strconv.ParseInt(r.URL.Query().Get("tmdbId"), 10, 64)
		out := []map[string]any{}
		if movie, ok := f.movies[id]; ok {
			out = append(out, movie)
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.URL.Path == "/api/v3/movie" && r.Method == http.MethodPost:
		var movie map[string]any
		if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		tmdbID := int64(movie["tmdbId"].(float64))
		movie["id"] = f.nextID
		f.nextID++
		f.movies[tmdbID] = movie
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(movie)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (f *fakeRadarr) added() map[int64]map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]map[string]any, len(f.movies))
	for k, v := range f.movies {
		out[k] = v
	}
	return out
}

// setupConfig writes cfg under a temp HOME and returns the config path.
func setupConfig(t *testing.T, opts ...testsupport.ConfigOption) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	t.Setenv("HOME", home)
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("RADARR_API_KEY", "")
	path := filepath.Join(home, ".config", "cinematch", "config.toml")
	testsupport.WriteConfig(t, path, cfg)
	return cfg, path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}
