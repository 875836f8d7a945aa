// Package main hosts the TubeCast CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, sets up logging and the
// YouTube client, then hands off to the internal packages: publish for single
// uploads, batch for folders, history for the local upload log and preflight
// for the status report. Commands only parse flags and render output.
package main
