// Package services defines shared utilities consumed by the upload pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp upload IDs, source files, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent history statuses (failed vs rejected).
//
// Integrations with remote services live in subpackages (youtube, llm).
package services
