package radarr

// Movie is the subset of the Radarr movie resource the library layer uses.
type Movie struct {
	ID                  int64       `json:"id,omitempty"`
	Title               string      `json:"title"`
	OriginalTitle       string      `json:"originalTitle,omitempty"`
	Year                int         `json:"year,omitempty"`
	TMDBID              int64       `json:"tmdbId"`
	IMDbID              string      `json:"imdbId,omitempty"`
	TitleSlug           string      `json:"titleSlug,omitempty"`
	Overview            string      `json:"overview,omitempty"`
	Runtime             int         `json:"runtime,omitempty"`
	Images              []Image     `json:"images,omitempty"`
	Path                string      `json:"path,omitempty"`
	RootFolderPath      string      `json:"rootFolderPath,omitempty"`
	QualityProfileID    int         `json:"qualityProfileId"`
	MinimumAvailability string      `json:"minimumAvailability,omitempty"`
	Monitored           bool        `json:"monitored"`
	HasFile             bool        `json:"hasFile,omitempty"`
	Tags                []int       `json:"tags"`
	AddOptions          *AddOptions `json:"addOptions,omitempty"`
}

// Image is a remote artwork reference.
type Image struct {
	CoverType string `json:"coverType"`
	RemoteURL string `json:"remoteUrl"`
}

// AddOptions controls what Radarr does right after adding a movie.
type AddOptions struct {
	SearchForMovie bool   `json:"searchForMovie"`
	Monitor        string `json:"monitor,omitempty"`
}

// Tag is a Radarr tag.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// SystemStatus is the subset of /system/status used for health checks.
type SystemStatus struct {
	AppName string `json:"appName"`
	Version string `json:"version"`
}

// Command names understood by Radarr.
const (
	CommandDownloadedMoviesScan = "DownloadedMoviesScan"
	CommandRefreshMovie         = "RefreshMovie"
)

// Command is a queued Radarr command.
type Command struct {
	ID         int64   `json:"id,omitempty"`
	Name       string  `json:"name"`
	Path       string  `json:"path,omitempty"`
	ImportMode string  `json:"importMode,omitempty"`
	MovieIDs   []int64 `json:"movieIds,omitempty"`
	Status     string  `json:"status,omitempty"`
}

// validationFailure is one entry of a Radarr 400 response body.
type validationFailure struct {
	PropertyName string `json:"propertyName"`
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    string `json:"errorCode"`
}
