// Package logs reads the TubeCast log file for `tubecast logs`.
//
// Last returns the trailing lines of the file with bounded memory, and Follow
// polls for appended lines until its context is canceled. Only complete lines
// are returned, so a record that is still being written is picked up on the
// next poll instead of being split in two.
package logs
