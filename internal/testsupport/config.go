package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cinematch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Retries are disabled, review is non-interactive and the size filter is off
// so tiny fixture files count as videos.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.TMDB.RequestsPerSecond = 0
	cfgVal.Run.Interactive = false
	cfgVal.Retry.Attempts = 1
	cfgVal.Retry.BaseDelayMS = 0
	cfgVal.Retry.MaxDelayMS = 0
	cfgVal.Files.MinFileSizeMB = 0
	cfgVal.Audit.Dir = filepath.Join(base, "audit")
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDB points the catalog client at baseURL.
func WithTMDB(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = baseURL
	}
}

// WithLLM enables the reasoning service at baseURL.
func WithLLM(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = baseURL
		b.cfg.LLM.APIKey = "test-llm"
	}
}

// WithRadarr configures a complete library connection at url.
func WithRadarr(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Radarr.URL = url
		b.cfg.Radarr.APIKey = "test-radarr"
		b.cfg.Radarr.RootFolderPath = filepath.Join(b.baseDir, "movies")
		b.cfg.Radarr.QualityProfileID = 1
	}
}

// WithLanguageHints sets the run-wide language hints.
func WithLanguageHints(codes ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.LanguageHints = codes
	}
}

// WithMetricsTextfile exports run metrics next to the other temp files.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.TextfilePath = filepath.Join(b.baseDir, "metrics", "cinematch.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Audit.Dir)
}

// WriteConfig encodes cfg as TOML at path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
