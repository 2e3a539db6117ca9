package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateRadarr(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateFiles(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateLibrary ensures Radarr is fully configured. Runs that write to the
// library call this in addition to Validate.
func (c *Config) ValidateLibrary() error {
	if strings.TrimSpace(c.Radarr.URL) == "" {
		return errors.New("radarr.url is required. Set it in the config file or use --dry-run")
	}
	if strings.TrimSpace(c.Radarr.APIKey) == "" {
		return errors.New("radarr.api_key is required. Set RADARR_API_KEY env var or edit the config file")
	}
	if c.Radarr.RootFolderPath == "" {
		return errors.New("radarr.root_folder_path is required for adding titles")
	}
	if c.Radarr.QualityProfileID <= 0 {
		return errors.New("radarr.quality_profile_id must be positive")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'cinematch config init')", defaultPath)
	}
	if c.TMDB.RequestsPerSecond < 0 {
		return errors.New("tmdb.requests_per_second must not be negative")
	}
	if c.TMDB.CacheSize < 0 {
		return errors.New("tmdb.cache_size must not be negative")
	}
	return nil
}

func (c *Config) validateRadarr() error {
	switch c.Radarr.MinimumAvailability {
	case "announced", "inCinemas", "released", "preDB":
	default:
		return fmt.Errorf("radarr.minimum_availability %q must be one of announced, inCinemas, released, preDB", c.Radarr.MinimumAvailability)
	}
	switch c.Radarr.ImportMode {
	case "none", "auto", "copy", "move":
	default:
		return fmt.Errorf("radarr.import_mode %q must be one of none, auto, copy, move", c.Radarr.ImportMode)
	}
	return nil
}

func (c *Config) validateMatching() error {
	m := c.Matching
	if m.ConfidenceThreshold < 0 || m.ConfidenceThreshold > 1 {
		return errors.New("matching.confidence_threshold must be between 0 and 1")
	}
	if m.YearTolerance < 0 {
		return errors.New("matching.year_tolerance must not be negative")
	}
	if m.MaxCandidates <= 0 {
		return errors.New("matching.max_candidates must be positive")
	}
	if m.AICandidates <= 0 {
		return errors.New("matching.ai_candidates must be positive")
	}
	if m.ReviewCandidates <= 0 {
		return errors.New("matching.review_candidates must be positive")
	}
	w := m.Weights
	for name, value := range map[string]float64{"title": w.Title, "year": w.Year, "popularity": w.Popularity, "language": w.Language} {
		if value < 0 {
			return fmt.Errorf("matching.weights.%s must not be negative", name)
		}
	}
	if sum := w.Title + w.Year + w.Popularity + w.Language; math.Abs(sum-1) > 0.01 {
		return fmt.Errorf("matching.weights must sum to 1.0 (got %.3f)", sum)
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.BatchCap <= 0 {
		return errors.New("run.batch_cap must be positive")
	}
	if c.Run.Parallelism <= 0 {
		return errors.New("run.parallelism must be positive")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("retry.attempts must be positive")
	}
	if c.Retry.BaseDelayMS < 0 || c.Retry.MaxDelayMS < 0 {
		return errors.New("retry delays must not be negative")
	}
	return nil
}

func (c *Config) validateFiles() error {
	if len(c.Files.VideoExtensions) == 0 {
		return errors.New("files.video_extensions must list at least one extension")
	}
	if c.Files.MinFileSizeMB < 0 {
		return errors.New("files.min_file_size_mb must not be negative")
	}
	if c.Files.ScanDepth < 0 {
		return errors.New("files.scan_depth must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}
