// Package history records upload attempts in a local SQLite database.
//
// Each invocation of the upload or batch commands writes one row when the
// transfer starts and updates it when the transfer ends. Rows feed the
// `tubecast history` command; they are never used to resume a session.
package history
