package main

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"cinematch/internal/aiselect"
	"cinematch/internal/catalog"
	"cinematch/internal/catalog/tmdb"
	"cinematch/internal/config"
	"cinematch/internal/gate"
	"cinematch/internal/library"
	"cinematch/internal/library/radarr"
	"cinematch/internal/logging"
	"cinematch/internal/metrics"
	"cinematch/internal/pipeline"
	"cinematch/internal/retry"
	"cinematch/internal/review"
	"cinematch/internal/scan"
	"cinematch/internal/scoring"
	"cinematch/internal/services/llm"
)

// runSettings are the per-invocation overrides taken from flags.
type runSettings struct {
	dryRun      bool
	interactive bool
	parallelism int
	batchCap    int
	promptIn    io.Reader
	promptOut   io.Writer
}

func retryPolicy(cfg config.Retry, logger *slog.Logger, service string) retry.Policy {
	return retry.Policy{
		Attempts:  cfg.Attempts,
		BaseDelay: time.Duration(cfg.BaseDelayMS) * time.Millisecond,
		MaxDelay:  time.Duration(cfg.MaxDelayMS) * time.Millisecond,
		OnRetry: func(attempt int, err error) {
			logger.Debug("retrying request",
				logging.String("service", service),
				logging.Int("attempt", attempt),
				logging.Error(err))
		},
	}
}

func newTMDB(cfg *config.Config, logger *slog.Logger) (*tmdb.Client, error) {
	return tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TMDB.TimeoutSeconds) * time.Second}),
		tmdb.WithRetryPolicy(retryPolicy(cfg.Retry, logger, "tmdb")),
	)
}

func newRetriever(cfg *config.Config, client *tmdb.Client, logger *slog.Logger) *catalog.Retriever {
	return catalog.NewRetriever(client, catalog.Options{
		MaxCandidates:     cfg.Matching.MaxCandidates,
		YearTolerance:     cfg.Matching.YearTolerance,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
		CacheSize:         cfg.TMDB.CacheSize,
		CacheTTL:          time.Duration(cfg.TMDB.CacheTTLMinutes) * time.Minute,
	}, logger)
}

func newSelector(cfg *config.Config, logger *slog.Logger) *aiselect.Selector {
	if !cfg.AIConfigured() {
		return aiselect.NewSelector(nil, cfg.Matching.AICandidates, logger)
	}
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}, llm.WithRetryPolicy(retryPolicy(cfg.Retry, logger, "llm")))
	return aiselect.NewSelector(client, cfg.Matching.AICandidates, logger)
}

func newLibrary(cfg *config.Config, details library.DetailsSource, logger *slog.Logger) (*library.Manager, error) {
	client, err := radarr.New(cfg.Radarr.URL, cfg.Radarr.APIKey,
		radarr.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Radarr.TimeoutSeconds) * time.Second}),
		radarr.WithRetryPolicy(retryPolicy(cfg.Retry, logger, "radarr")),
	)
	if err != nil {
		return nil, err
	}
	return library.NewManager(client, library.Placement{
		RootFolder:          cfg.Radarr.RootFolderPath,
		QualityProfileID:    cfg.Radarr.QualityProfileID,
		MinimumAvailability: cfg.Radarr.MinimumAvailability,
		Tags:                cfg.Radarr.Tags,
		Monitored:           cfg.Radarr.Monitored,
		SearchOnAdd:         cfg.Radarr.SearchOnAdd,
	}, logger, library.WithDetails(details)), nil
}

func newScanner(cfg *config.Config, logger *slog.Logger) *scan.Scanner {
	return scan.New(afero.NewOsFs(), scan.Options{
		VideoExtensions:    cfg.Files.VideoExtensions,
		SubtitleExtensions: cfg.Files.SubtitleExtensions,
		IgnorePatterns:     cfg.Files.IgnorePatterns,
		MinVideoSize:       int64(cfg.Files.MinFileSizeMB) * 1024 * 1024,
		MaxDepth:           cfg.Files.ScanDepth,
	}, logger)
}

// buildOrchestrator wires every collaborator from cfg. The library is only
// required when the run is not a dry run.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger, settings runSettings, observer pipeline.Observer) (*pipeline.Orchestrator, error) {
	catalogClient, err := newTMDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	retriever := newRetriever(cfg, catalogClient, logger)

	w := cfg.Matching.Weights
	deps := pipeline.Deps{
		Retriever: retriever,
		Scorer: scoring.NewScorer(scoring.Weights{
			Title:      w.Title,
			Year:       w.Year,
			Popularity: w.Popularity,
			Language:   w.Language,
		}, cfg.Matching.YearTolerance),
		Selector: newSelector(cfg, logger),
		Gate:     gate.New(cfg.Matching.ConfidenceThreshold),
		Review:   review.Unavailable{},
		Scanner:  newScanner(cfg, logger),
	}
	if observer != nil {
		deps.Observer = observer
	}
	if settings.interactive {
		deps.Review = review.NewTerminal(settings.promptIn, settings.promptOut)
	}
	if !settings.dryRun {
		manager, err := newLibrary(cfg, catalogClient, logger)
		if err != nil {
			return nil, err
		}
		deps.Library = manager
	}

	return pipeline.New(deps, pipeline.Options{
		Parallelism:   settings.parallelism,
		BatchCap:      settings.batchCap,
		DryRun:        settings.dryRun,
		ImportMode:    cfg.Radarr.ImportMode,
		ReviewSurface: cfg.Matching.ReviewCandidates,
		LanguageHints: cfg.Matching.LanguageHints,
	}, logger)
}

var _ pipeline.Observer = (*metrics.Run)(nil)
