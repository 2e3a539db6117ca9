package config

import (
	"fmt"
	"os"
	"strings"

	"cinematch/internal/language"
)

func (c *Config) normalize() error {
	c.normalizeTMDB()
	c.normalizeLLM()
	c.normalizeRadarr()
	c.normalizeMatching()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = envFallback(c.TMDB.APIKey, "TMDB_API_KEY")
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(c.TMDB.Language) == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = envFallback(c.LLM.APIKey, "OPENROUTER_API_KEY")
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
}

func (c *Config) normalizeRadarr() {
	c.Radarr.APIKey = envFallback(c.Radarr.APIKey, "RADARR_API_KEY")
	c.Radarr.URL = strings.TrimRight(strings.TrimSpace(c.Radarr.URL), "/")
	c.Radarr.RootFolderPath = strings.TrimSpace(c.Radarr.RootFolderPath)
	c.Radarr.ImportMode = strings.ToLower(strings.TrimSpace(c.Radarr.ImportMode))
	if c.Radarr.ImportMode == "" {
		c.Radarr.ImportMode = defaultImportMode
	}
	if strings.TrimSpace(c.Radarr.MinimumAvailability) == "" {
		c.Radarr.MinimumAvailability = defaultMinAvailability
	}
	tags := make([]string, 0, len(c.Radarr.Tags))
	for _, tag := range c.Radarr.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}
	c.Radarr.Tags = tags
}

func (c *Config) normalizeMatching() {
	c.Matching.LanguageHints = language.NormalizeList(c.Matching.LanguageHints)
	if c.Matching.AICandidates > c.Matching.MaxCandidates {
		c.Matching.AICandidates = c.Matching.MaxCandidates
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Audit.Dir, err = expandPath(strings.TrimSpace(c.Audit.Dir)); err != nil {
		return fmt.Errorf("audit.dir: %w", err)
	}
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}
