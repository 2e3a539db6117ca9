package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	Language          string  `toml:"language"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	CacheTTLMinutes   int     `toml:"cache_ttl_minutes"`
	CacheSize         int     `toml:"cache_size"`
}

// LLM contains the reasoning service connection used for disambiguation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Radarr contains the library manager connection and placement defaults for
// newly added titles.
type Radarr struct {
	URL                 string   `toml:"url"`
	APIKey              string   `toml:"api_key"`
	TimeoutSeconds      int      `toml:"timeout_seconds"`
	RootFolderPath      string   `toml:"root_folder_path"`
	QualityProfileID    int      `toml:"quality_profile_id"`
	MinimumAvailability string   `toml:"minimum_availability"`
	Tags                []string `toml:"tags"`
	Monitored           bool     `toml:"monitored"`
	SearchOnAdd         bool     `toml:"search_on_add"`
	// ImportMode selects the downloaded-movies scan requested after upsert:
	// "none", "auto", "copy" or "move".
	ImportMode string `toml:"import_mode"`
}

// Weights are the scoring component weights. They must sum to 1.
type Weights struct {
	Title      float64 `toml:"title"`
	Year       float64 `toml:"year"`
	Popularity float64 `toml:"popularity"`
	Language   float64 `toml:"language"`
}

// Matching contains candidate retrieval, scoring and gating settings.
type Matching struct {
	ConfidenceThreshold float64  `toml:"confidence_threshold"`
	YearTolerance       int      `toml:"year_tolerance"`
	MaxCandidates       int      `toml:"max_candidates"`
	AICandidates        int      `toml:"ai_candidates"`
	ReviewCandidates    int      `toml:"review_candidates"`
	LanguageHints       []string `toml:"language_hints"`
	Weights             Weights  `toml:"weights"`
}

// Run contains per-invocation processing limits.
type Run struct {
	BatchCap    int  `toml:"batch_cap"`
	Parallelism int  `toml:"parallelism"`
	Interactive bool `toml:"interactive"`
	DryRun      bool `toml:"dry_run"`
}

// Retry contains the backoff policy shared by the external clients.
type Retry struct {
	Attempts    int `toml:"attempts"`
	BaseDelayMS int `toml:"base_delay_ms"`
	MaxDelayMS  int `toml:"max_delay_ms"`
}

// Files contains scan filters.
type Files struct {
	VideoExtensions    []string `toml:"video_extensions"`
	SubtitleExtensions []string `toml:"subtitle_extensions"`
	IgnorePatterns     []string `toml:"ignore_patterns"`
	MinFileSizeMB      int      `toml:"min_file_size_mb"`
	ScanDepth          int      `toml:"scan_depth"`
}

// Audit contains the run record output location.
type Audit struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Metrics contains the Prometheus textfile export location.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunStarted     bool   `toml:"run_started"`
	RunCompleted   bool   `toml:"run_completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Config encapsulates all configuration values for cinematch.
//
// Configuration sections by subsystem:
//   - TMDB: catalog search, rate limit and response cache
//   - LLM: reasoning service used to disambiguate candidates
//   - Radarr: library manager connection and placement defaults
//   - Matching: retrieval cap, scoring weights and the confidence threshold
//   - Run: batch cap, parallelism, interactive review and dry run
//   - Retry: backoff shared by all external clients
//   - Files: scan filters
//   - Audit, Metrics, Notifications, Logging: run outputs
type Config struct {
	TMDB          TMDB          `toml:"tmdb"`
	LLM           LLM           `toml:"llm"`
	Radarr        Radarr        `toml:"radarr"`
	Matching      Matching      `toml:"matching"`
	Run           Run           `toml:"run"`
	Retry         Retry         `toml:"retry"`
	Files         Files         `toml:"files"`
	Audit         Audit         `toml:"audit"`
	Metrics       Metrics       `toml:"metrics"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cinematch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LibraryConfigured reports whether Radarr connection details are present.
func (c *Config) LibraryConfigured() bool {
	return strings.TrimSpace(c.Radarr.URL) != "" && strings.TrimSpace(c.Radarr.APIKey) != ""
}

// AIConfigured reports whether the reasoning service has credentials.
func (c *Config) AIConfigured() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}
