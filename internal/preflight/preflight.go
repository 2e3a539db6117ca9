package preflight

import (
	"context"

	"cinematch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every check that applies to cfg. An unconfigured reasoning
// service passes; an unconfigured library fails since only dry runs work
// without it.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckTMDB(ctx, cfg.TMDB)}

	if cfg.AIConfigured() {
		results = append(results, CheckLLM(ctx, "Reasoning LLM", cfg.LLM))
	} else {
		results = append(results, Result{Name: "Reasoning LLM", Passed: true, Detail: "not configured; every file goes to review"})
	}

	if cfg.LibraryConfigured() {
		results = append(results, CheckRadarr(ctx, cfg.Radarr))
	} else {
		results = append(results, Result{Name: "Radarr", Detail: "url or api key missing"})
	}

	if cfg.Audit.Enabled {
		results = append(results, CheckWritableDir("Audit directory", cfg.Audit.Dir))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
