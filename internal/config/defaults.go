package config

const (
	defaultConfigPath          = "~/.config/cinematch/config.toml"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBLanguage        = "en-US"
	defaultTMDBTimeoutSeconds  = 10
	defaultTMDBRequestsPerSec  = 4
	defaultTMDBCacheTTLMinutes = 60
	defaultTMDBCacheSize       = 512
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-3-flash-preview"
	defaultLLMReferer          = "https://github.com/cinematch/cinematch"
	defaultLLMTitle            = "cinematch"
	defaultLLMTimeoutSeconds   = 30
	defaultRadarrTimeout       = 15
	defaultMinAvailability     = "released"
	defaultImportMode          = "none"
	defaultConfidence          = 0.95
	defaultYearTolerance       = 1
	defaultMaxCandidates       = 10
	defaultAICandidates        = 5
	defaultReviewCandidates    = 3
	defaultBatchCap            = 20
	defaultParallelism         = 1
	defaultRetryAttempts       = 3
	defaultRetryBaseDelayMS    = 1000
	defaultRetryMaxDelayMS     = 10000
	defaultMinFileSizeMB       = 100
	defaultScanDepth           = 2
	defaultAuditDir            = "~/.local/share/cinematch/audit"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogMaxSizeMB        = 10
	defaultLogMaxBackups       = 5
	defaultLogMaxAgeDays       = 30
)

var (
	defaultVideoExtensions    = []string{".mkv", ".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".m4v"}
	defaultSubtitleExtensions = []string{".srt", ".ass", ".ssa", ".sub", ".vtt"}
	defaultIgnorePatterns     = []string{"sample", "trailer", "extras", "behind.the.scenes", "featurette"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			Language:          defaultTMDBLanguage,
			TimeoutSeconds:    defaultTMDBTimeoutSeconds,
			RequestsPerSecond: defaultTMDBRequestsPerSec,
			CacheTTLMinutes:   defaultTMDBCacheTTLMinutes,
			CacheSize:         defaultTMDBCacheSize,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Radarr: Radarr{
			TimeoutSeconds:      defaultRadarrTimeout,
			MinimumAvailability: defaultMinAvailability,
			Monitored:           true,
			ImportMode:          defaultImportMode,
		},
		Matching: Matching{
			ConfidenceThreshold: defaultConfidence,
			YearTolerance:       defaultYearTolerance,
			MaxCandidates:       defaultMaxCandidates,
			AICandidates:        defaultAICandidates,
			ReviewCandidates:    defaultReviewCandidates,
			Weights: Weights{
				Title:      0.5,
				Year:       0.25,
				Popularity: 0.15,
				Language:   0.1,
			},
		},
		Run: Run{
			BatchCap:    defaultBatchCap,
			Parallelism: defaultParallelism,
			Interactive: true,
		},
		Retry: Retry{
			Attempts:    defaultRetryAttempts,
			BaseDelayMS: defaultRetryBaseDelayMS,
			MaxDelayMS:  defaultRetryMaxDelayMS,
		},
		Files: Files{
			VideoExtensions:    append([]string(nil), defaultVideoExtensions...),
			SubtitleExtensions: append([]string(nil), defaultSubtitleExtensions...),
			IgnorePatterns:     append([]string(nil), defaultIgnorePatterns...),
			MinFileSizeMB:      defaultMinFileSizeMB,
			ScanDepth:          defaultScanDepth,
		},
		Audit: Audit{
			Enabled: true,
			Dir:     defaultAuditDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunStarted:     false,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
