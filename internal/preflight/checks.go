package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"cinematch/internal/catalog/tmdb"
	"cinematch/internal/config"
	"cinematch/internal/library/radarr"
	"cinematch/internal/retry"
	"cinematch/internal/services/llm"
)

const probeTitle = "The Matrix"

// CheckTMDB runs one search to verify the key.
func CheckTMDB(ctx context.Context, cfg config.TMDB) Result {
	const name = "TMDB"
	client, err := tmdb.New(cfg.APIKey, cfg.BaseURL, cfg.Language, tmdb.WithRetryPolicy(retry.None()))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, err := client.SearchMovie(checkCtx, probeTitle, tmdb.SearchOptions{})
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err, "TMDB")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("search ok (%d results)", resp.TotalResults)}
}

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryPolicy(retry.None()))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err, "LLM")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (model %s)", client.Model())}
}

// CheckRadarr verifies Radarr connectivity and authentication.
func CheckRadarr(ctx context.Context, cfg config.Radarr) Result {
	const name = "Radarr"
	client, err := radarr.New(cfg.URL, cfg.APIKey)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	status, err := client.SystemStatus(checkCtx)
	if err != nil {
		var statusErr *radarr.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			return Result{Name: name, Detail: "auth failed (invalid api key)"}
		}
		return Result{Name: name, Detail: summarizeError(err, "Radarr")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s %s reachable", status.AppName, status.Version)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritableDir is CheckDirectoryAccess for a directory that is created on
// demand: a missing path passes when its nearest existing parent is writable.
func CheckWritableDir(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for parent != filepath.Dir(parent) {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		parent = filepath.Dir(parent)
	}
	check := CheckDirectoryAccess(name, parent)
	if !check.Passed {
		return check
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

func summarizeError(err error, service string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s API unresponsive)", service)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s API unreachable)", service)
	}
	return err.Error()
}
