// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, file paths, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the taxonomy recorded with each processed file (catalog, ai,
//     library, batch cap).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
