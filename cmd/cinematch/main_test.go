package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinematch/internal/audit"
	"cinematch/internal/normalize"
	"cinematch/internal/testsupport"
)

var heat = tmdbMovie{ID: 949, Title: "Heat", OriginalTitle: "Heat", OriginalLanguage: "en", ReleaseDate: "1995-12-15", Popularity: 40, IMDbID: "tt0113277"}

func matchingServers(t *testing.T) (*fakeRadarr, []testsupport.ConfigOption) {
	t.Helper()
	tmdbSrv := newFakeTMDB(t, map[string][]tmdbMovie{
		"Heat": {heat},
		"Some Film": {
			{ID: 501, Title: "Completely Different Picture", OriginalLanguage: "fr", ReleaseDate: "2010-03-01", Popularity: 2},
		},
	})
	radarrSrv := newFakeRadarr(t)
	return radarrSrv, []testsupport.ConfigOption{
		testsupport.WithTMDB(tmdbSrv.URL),
		testsupport.WithLLM(newFakeLLM(t, 0.97).URL),
		testsupport.WithRadarr(radarrSrv.srv.URL),
		testsupport.WithMetricsTextfile(),
		testsupport.WithLanguageHints("en"),
	}
}

func inputTree(t *testing.T) string {
	t.Helper()
	return testsupport.WriteTree(t, filepath.Join(t.TempDir(), "incoming"),
		"Heat (1995)/Heat.1995.1080p.BluRay.x264.mkv",
		"Heat (1995)/Heat.1995.1080p.BluRay.x264.srt",
		"Unknown.Thing.2001.mkv",
		"Some.Film.2010.720p.WEB-DL.mkv",
		"notes.txt",
	)
}

func TestRunEndToEndJSON(t *testing.T) {
	radarr, opts := matchingServers(t)
	cfg, configPath := setupConfig(t, opts...)
	root := inputTree(t)

	out, stderr, err := runCLI(t, []string{"run", root, "--json", "--non-interactive"}, configPath)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}

	var record audit.Record
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		t.Fatalf("decode run record: %v\n%s", err, out)
	}
	if len(record.Files) != 3 {
		t.Fatalf("expected 3 video files, got %d", len(record.Files))
	}
	c := record.Counts
	if c.MatchedAuto != 1 || c.Added != 1 || c.PendingReview != 1 || c.Skipped != 1 || c.Failed != 0 {
		t.Fatalf("unexpected counts %+v", c)
	}

	byTitle := map[string]audit.File{}
	for _, f := range record.Files {
		byTitle[f.Title] = f
	}
	if f := byTitle["Heat"]; f.Decision != "auto_selected" || f.ChosenID != 949 || f.Outcome != "added" || f.LibraryID == 0 {
		t.Fatalf("unexpected Heat entry %+v", f)
	}
	if f := byTitle["Unknown Thing"]; f.Decision != "skipped" || f.Reason != "no candidates" {
		t.Fatalf("unexpected Unknown Thing entry %+v", f)
	}
	if f := byTitle["Some Film"]; f.Decision != "manual_pending" || len(f.Candidates) != 1 || f.Outcome != "" {
		t.Fatalf("unexpected Some Film entry %+v", f)
	}

	added := radarr.added()
	movie, ok := added[949]
	if !ok || len(added) != 1 {
		t.Fatalf("expected only Heat in radarr, got %v", added)
	}
	if movie["rootFolderPath"] != cfg.Radarr.RootFolderPath || movie["titleSlug"] != "heat-1995" || movie["imdbId"] != "tt0113277" {
		t.Fatalf("unexpected add payload %v", movie)
	}

	entries, err := os.ReadDir(cfg.Audit.Dir)
	if err != nil {
		t.Fatalf("read audit dir: %v", err)
	}
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "run-") && strings.HasSuffix(e.Name(), "-"+record.RunID+".json") {
			found = true
		}
	}
	if !found {
		t.Fatalf("audit record for %s not written", record.RunID)
	}

	metrics, err := os.ReadFile(cfg.Metrics.TextfilePath)
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	requireContains(t, string(metrics), `cinematch_files_total{decision="auto_selected"} 1`)

	// A second run finds Heat already tracked.
	out, _, err = runCLI(t, []string{"run", root, "--json", "--non-interactive", "--no-audit"}, configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		t.Fatalf("decode second record: %v", err)
	}
	if record.Counts.AlreadyPresent != 1 || record.Counts.Added != 0 {
		t.Fatalf("expected idempotent rerun, got %+v", record.Counts)
	}
	if len(radarr.added()) != 1 {
		t.Fatal("rerun added a duplicate")
	}
}

func TestRunDryRunWithoutLibrary(t *testing.T) {
	tmdbSrv := newFakeTMDB(t, map[string][]tmdbMovie{"Heat": {heat}})
	_, configPath := setupConfig(t, testsupport.WithTMDB(tmdbSrv.URL))
	root := inputTree(t)

	if _, _, err := runCLI(t, []string{"run", root}, configPath); err == nil || !strings.Contains(err.Error(), "radarr.url is required") {
		t.Fatalf("expected library configuration error, got %v", err)
	}

	out, stderr, err := runCLI(t, []string{"run", root, "--dry-run", "--non-interactive"}, configPath)
	if err != nil {
		t.Fatalf("dry run: %v\nstderr: %s", err, stderr)
	}
	requireContains(t, out, "Heat.1995.1080p.BluRay.x264.mkv")
	requireContains(t, out, "Dry run: library not modified.")
	// Without a reasoning service every candidate waits for review.
	requireContains(t, out, "ai unavailable")
}

func TestRunRefusesWhenCatalogUnreachable(t *testing.T) {
	_, configPath := setupConfig(t, testsupport.WithTMDB("http://127.0.0.1:1"))
	root := inputTree(t)

	_, _, err := runCLI(t, []string{"run", root, "--dry-run"}, configPath)
	if err == nil || !strings.Contains(err.Error(), "catalog unavailable") {
		t.Fatalf("expected catalog refusal, got %v", err)
	}
}

func TestResolveShowsRankedCandidates(t *testing.T) {
	_, opts := matchingServers(t)
	_, configPath := setupConfig(t, opts...)

	out, stderr, err := runCLI(t, []string{"resolve", "Some.Film.2010.720p.WEB-DL.mkv"}, configPath)
	if err != nil {
		t.Fatalf("resolve: %v\nstderr: %s", err, stderr)
	}
	requireContains(t, out, "Query:    Some Film (2010)")
	requireContains(t, out, "manual_pending")
	requireContains(t, out, "Completely Different Picture (2010)")

	out, _, err = runCLI(t, []string{"resolve", "Heat.1995.mkv", "--json"}, configPath)
	if err != nil {
		t.Fatalf("resolve --json: %v", err)
	}
	var file audit.File
	if err := json.Unmarshal([]byte(out), &file); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if file.Decision != "auto_selected" || file.ChosenID != 949 || file.Outcome != "" {
		t.Fatalf("unexpected resolution %+v", file)
	}
}

func TestNormalizeSkipsConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TMDB_API_KEY", "")

	out, _, err := runCLI(t, []string{"normalize", "--json", "The.Matrix.1999.1080p.BluRay.x264-GRP.mkv"}, "")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var queries []normalize.Query
	if err := json.Unmarshal([]byte(out), &queries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(queries) != 1 || queries[0].Title != "The Matrix" || queries[0].Year != 1999 {
		t.Fatalf("unexpected queries %+v", queries)
	}

	out, _, err = runCLI(t, []string{"normalize", "Heat.1995.mkv"}, "")
	if err != nil {
		t.Fatalf("normalize table: %v", err)
	}
	requireContains(t, out, "Heat")
	requireContains(t, out, "1995")
}

func TestConfigInitAndValidate(t *testing.T) {
	_, configPath := setupConfig(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "only dry runs will work")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestCheckReportsEachService(t *testing.T) {
	_, opts := matchingServers(t)
	_, configPath := setupConfig(t, opts...)

	out, _, err := runCLI(t, []string{"check", "--json"}, configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	var results []struct {
		Name   string `json:"name"`
		Passed bool   `json:"passed"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if !r.Passed {
			t.Fatalf("check %s failed: %s", r.Name, r.Detail)
		}
	}
	if strings.Join(names, ",") != "TMDB,Reasoning LLM,Radarr,Audit directory" {
		t.Fatalf("unexpected checks %v", names)
	}

	tmdbSrv := newFakeTMDB(t, nil)
	_, configPath = setupConfig(t, testsupport.WithTMDB(tmdbSrv.URL))
	out, _, err = runCLI(t, []string{"check"}, configPath)
	if err == nil {
		t.Fatal("expected failure without radarr")
	}
	requireContains(t, out, "url or api key missing")
}

func TestTestNotifyDisabled(t *testing.T) {
	_, configPath := setupConfig(t)
	out, _, err := runCLI(t, []string{"test-notify"}, configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications are disabled")
}
