// Package upload implements the resumable chunked upload engine.
//
// An Uploader drives one upload session at a time against a Transport: the
// Planner cuts the source into byte ranges starting at the server-confirmed
// offset, the Transport sends one range per call, the Classifier decides
// whether a failure is worth retrying, and Backoff computes the jittered delay
// before the same unsent range is tried again.
//
// # State machine
//
// Idle -> Sending -> (Advancing | BackingOff | Completed | Failed). Advancing
// and BackingOff both return to Sending; Completed and Failed are terminal.
// The confirmed offset never moves backward and the consecutive-failure
// counter resets on every forward step.
//
// # Errors
//
// Terminal failures are returned as *Error values tagged with one of
// ErrFatal, ErrProtocol, ErrRetriesExhausted or ErrCanceled. The underlying
// cause stays reachable through errors.Is / errors.As.
//
// # Concurrency
//
// Upload blocks the caller for every network exchange and backoff sleep. The
// session state lives on the stack of a single Upload call, so one Uploader may
// be shared by independent uploads running in parallel.
package upload
