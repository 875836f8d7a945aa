// Package preflight provides readiness checks for the credentials, files and
// remote services TubeCast depends on.
//
// These checks run in two contexts:
//   - upload and batch call CheckVideoFile (and RunAll for batch) before any
//     session is opened, so a bad path never costs a resumable session.
//   - The CLI "tubecast status" command prints RunAll results as a table.
//
// Checks for optional features (the LLM) are skipped when the feature is not
// configured.
package preflight
