// Package batch publishes every matching video in a folder, one after another.
//
// A lock file in the folder keeps two tubecast processes from uploading the
// same directory at once. One failed video never stops the rest.
package batch
