// Package services defines shared utilities consumed by the pipeline stages
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and move identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper that separate fatal data
//     and invariant failures from per-row external tool failures.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error classification, observability) stays uniform across the pipeline.
package services
