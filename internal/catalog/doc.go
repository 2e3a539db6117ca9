// Package catalog retrieves movie candidates for a normalized filename query.
//
// Retriever sits between the pipeline and the TMDB client: it searches by
// title, applies the year tolerance to the response, caps the list, and keeps
// the catalog's own relevance order. Searches are rate limited and cached per
// (title, year) for the lifetime of the process.
package catalog
