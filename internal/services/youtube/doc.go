// Package youtube talks to the YouTube Data API v3.
//
// Authorize and TokenSource handle the installed-app OAuth flow and token
// persistence. Client wraps the read and metadata endpoints behind a
// retrying HTTP client, and StartUpload opens a resumable upload session
// whose ResumableSession plugs into the upload orchestrator as its
// transport.
package youtube
