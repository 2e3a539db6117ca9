// Package radarr is a small client for the Radarr v3 API.
//
// It covers what the library manager needs: looking a movie up by TMDB id,
// adding a movie, resolving tags, issuing commands (downloaded-movies scan)
// and reading the system status for preflight checks. Requests authenticate
// with the X-Api-Key header and run under the injected retry.Policy.
package radarr
