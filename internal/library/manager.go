// Package library makes sure chosen movies are tracked by the library manager
// (Radarr) without creating duplicates.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"cinematch/internal/catalog"
	"cinematch/internal/catalog/tmdb"
	"cinematch/internal/library/radarr"
	"cinematch/internal/logging"
	"cinematch/internal/services"
	"cinematch/internal/textutil"
)

// Client is the library API the manager depends on.
type Client interface {
	LookupByTMDB(ctx context.Context, tmdbID int64) (*radarr.Movie, error)
	AddMovie(ctx context.Context, movie radarr.Movie) (*radarr.Movie, error)
	Tags(ctx context.Context) ([]radarr.Tag, error)
	CreateTag(ctx context.Context, label string) (*radarr.Tag, error)
	RunCommand(ctx context.Context, cmd radarr.Command) (*radarr.Command, error)
}

// Placement describes where and how new movies are added.
type Placement struct {
	RootFolder          string
	QualityProfileID    int
	MinimumAvailability string
	Tags                []string
	Monitored           bool
	SearchOnAdd         bool
}

// DetailsSource supplies the full catalog record for a movie about to be
// added. A nil result means the catalog does not know the id.
type DetailsSource interface {
	MovieDetails(ctx context.Context, tmdbID int64) (*tmdb.Details, error)
}

// Manager ensures movies exist in the library.
type Manager struct {
	client    Client
	placement Placement
	details   DetailsSource
	locks     *keyedMutex
	logger    *slog.Logger

	tagMu  sync.Mutex
	tagIDs []int
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithDetails makes the manager fetch full catalog details before adding a
// movie, so the add carries the IMDb id, runtime and poster.
func WithDetails(source DetailsSource) ManagerOption {
	return func(m *Manager) {
		m.details = source
	}
}

// NewManager constructs a Manager.
func NewManager(client Client, placement Placement, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		client:    client,
		placement: placement,
		locks:     newKeyedMutex(),
		logger:    logging.NewComponentLogger(logger, "library"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure looks the candidate up by catalog id and adds it when missing.
// Concurrent calls for the same id are serialized, so one of them adds and
// the rest see AlreadyPresent.
func (m *Manager) Ensure(ctx context.Context, candidate catalog.Candidate) Outcome {
	logger := logging.WithContext(ctx, m.logger).With(logging.Int64("tmdb_id", candidate.ID))
	unlock, err := m.locks.lock(ctx, candidate.ID)
	if err != nil {
		return Failed{Cause: services.Wrap(services.ErrLibraryUnavailable, "library", "lock", "", err)}
	}
	defer unlock()

	existing, err := m.client.LookupByTMDB(ctx, candidate.ID)
	if err != nil {
		return m.failed(logger, "lookup", err)
	}
	if existing != nil {
		logger.Info("movie already in library", logging.Int64("library_id", existing.ID))
		return AlreadyPresent{LibraryID: existing.ID}
	}

	tags, err := m.resolveTags(ctx)
	if err != nil {
		return m.failed(logger, "resolve tags", err)
	}

	created, err := m.client.AddMovie(ctx, m.newMovie(candidate, m.fetchDetails(ctx, logger, candidate.ID), tags))
	if err != nil {
		if radarr.IsAlreadyExists(err) {
			// Added elsewhere between our lookup and add.
			existing, lookupErr := m.client.LookupByTMDB(ctx, candidate.ID)
			if lookupErr == nil && existing != nil {
				logger.Info("movie already in library", logging.Int64("library_id", existing.ID))
				return AlreadyPresent{LibraryID: existing.ID}
			}
		}
		return m.failed(logger, "add", err)
	}
	logger.Info("movie added to library",
		logging.Int64("library_id", created.ID),
		logging.String("title", candidate.DisplayTitle()),
		logging.String("root_folder", m.placement.RootFolder))
	return Added{LibraryID: created.ID}
}

// RequestImport asks the library to scan dir and import what it finds for
// the movie. An empty or "none" mode does nothing.
func (m *Manager) RequestImport(ctx context.Context, libraryID int64, dir, mode string) error {
	radarrMode, ok := importModes[strings.ToLower(strings.TrimSpace(mode))]
	if !ok {
		return services.Wrap(services.ErrConfiguration, "library", "import", fmt.Sprintf("unknown import mode %q", mode), nil)
	}
	if radarrMode == "" {
		return nil
	}
	cmd, err := m.client.RunCommand(ctx, radarr.Command{
		Name:       radarr.CommandDownloadedMoviesScan,
		Path:       dir,
		ImportMode: radarrMode,
	})
	if err != nil {
		return services.Wrap(services.ErrLibraryUnavailable, "library", "import", dir, err)
	}
	logging.WithContext(ctx, m.logger).Info("library import requested",
		logging.Int64("library_id", libraryID),
		logging.Int64("command_id", cmd.ID),
		logging.String("path", dir),
		logging.String("import_mode", radarrMode))
	return nil
}

var importModes = map[string]string{
	"":     "",
	"none": "",
	"auto": "Auto",
	"copy": "Copy",
	"move": "Move",
}

// fetchDetails returns nil when no source is configured or the lookup fails;
// the add then goes ahead with the search result alone.
func (m *Manager) fetchDetails(ctx context.Context, logger *slog.Logger, tmdbID int64) *tmdb.Details {
	if m.details == nil {
		return nil
	}
	details, err := m.details.MovieDetails(ctx, tmdbID)
	if err != nil {
		logging.WarnWithContext(logger, "movie details unavailable", "catalog_details_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "movie added from search data without imdb id or artwork"))
		return nil
	}
	return details
}

func (m *Manager) newMovie(candidate catalog.Candidate, details *tmdb.Details, tags []int) radarr.Movie {
	original := candidate.OriginalTitle
	if original == "" {
		original = candidate.Title
	}
	movie := radarr.Movie{
		Title:               candidate.Title,
		OriginalTitle:       original,
		Year:                candidate.Year,
		TMDBID:              candidate.ID,
		TitleSlug:           TitleSlug(candidate.Title, candidate.Year),
		Overview:            candidate.Overview,
		RootFolderPath:      m.placement.RootFolder,
		QualityProfileID:    m.placement.QualityProfileID,
		MinimumAvailability: m.placement.MinimumAvailability,
		Monitored:           m.placement.Monitored,
		Tags:                tags,
		AddOptions: &radarr.AddOptions{
			SearchForMovie: m.placement.SearchOnAdd,
			Monitor:        "movieOnly",
		},
	}
	if details == nil {
		return movie
	}
	movie.IMDbID = details.IMDbID
	movie.Runtime = details.Runtime
	if details.Overview != "" {
		movie.Overview = details.Overview
	}
	if details.OriginalTitle != "" {
		movie.OriginalTitle = details.OriginalTitle
	}
	if poster := details.PosterURL(); poster != "" {
		movie.Images = []radarr.Image{{CoverType: "poster", RemoteURL: poster}}
	}
	return movie
}

// resolveTags maps the configured labels to ids once per manager, creating
// missing tags.
func (m *Manager) resolveTags(ctx context.Context) ([]int, error) {
	if len(m.placement.Tags) == 0 {
		return []int{}, nil
	}
	m.tagMu.Lock()
	defer m.tagMu.Unlock()
	if m.tagIDs != nil {
		return m.tagIDs, nil
	}

	existing, err := m.client.Tags(ctx)
	if err != nil {
		return nil, err
	}
	byLabel := make(map[string]int, len(existing))
	for _, tag := range existing {
		byLabel[strings.ToLower(tag.Label)] = tag.ID
	}
	ids := make([]int, 0, len(m.placement.Tags))
	for _, label := range m.placement.Tags {
		key := strings.ToLower(strings.TrimSpace(label))
		if key == "" {
			continue
		}
		if id, ok := byLabel[key]; ok {
			ids = append(ids, id)
			continue
		}
		created, err := m.client.CreateTag(ctx, key)
		if err != nil {
			return nil, err
		}
		byLabel[key] = created.ID
		ids = append(ids, created.ID)
	}
	m.tagIDs = ids
	return ids, nil
}

func (m *Manager) failed(logger *slog.Logger, op string, err error) Failed {
	cause := services.Wrap(services.ErrLibraryUnavailable, "library", op, "", err)
	logging.WarnWithContext(logger, "library update failed", "library_unavailable",
		logging.Error(err),
		logging.String("operation", op),
		logging.String(logging.FieldErrorHint, "check radarr url, api key and root folder"),
		logging.String(logging.FieldImpact, "movie was not added; rerun to retry"))
	return Failed{Cause: cause}
}

// TitleSlug builds the Radarr title slug, e.g. "the-matrix-1999".
func TitleSlug(title string, year int) string {
	slug := strings.ReplaceAll(textutil.Fold(title), " ", "-")
	if year > 0 {
		if slug == "" {
			return strconv.Itoa(year)
		}
		slug += "-" + strconv.Itoa(year)
	}
	return slug
}
