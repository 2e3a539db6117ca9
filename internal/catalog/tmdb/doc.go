// Package tmdb is the small TMDB API client behind candidate retrieval.
//
// It covers movie search and movie detail lookups. Requests authenticate with
// the v3 api_key query parameter, and transient failures (timeouts, 429, 5xx)
// are retried through the injected retry.Policy. Non-200 responses surface as
// *StatusError so callers can classify them.
package tmdb
