package catalog

import (
	"strconv"

	"cinematch/internal/catalog/tmdb"
)

// Candidate is one catalog entry that may match a file.
type Candidate struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	Year             int     `json:"year,omitempty"`
	Popularity       float64 `json:"popularity"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Overview         string  `json:"overview,omitempty"`
}

// DisplayTitle renders "Title (Year)", omitting an unknown year.
func (c Candidate) DisplayTitle() string {
	if c.Year <= 0 {
		return c.Title
	}
	return c.Title + " (" + strconv.Itoa(c.Year) + ")"
}

// FromTMDB converts a TMDB search result.
func FromTMDB(r tmdb.Result) Candidate {
	return Candidate{
		ID:               r.ID,
		Title:            r.Title,
		OriginalTitle:    r.OriginalTitle,
		Year:             r.Year(),
		Popularity:       r.Popularity,
		OriginalLanguage: r.OriginalLanguage,
		Overview:         r.Overview,
	}
}
