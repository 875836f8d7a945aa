// Package metadata decides the title, description and tags sent with each
// upload.
//
// Every field is resolved independently in this order: explicit command-line
// values, AI-generated values, a JSON sidecar next to the video
// (<name>.json), and finally a title derived from the file name. A failed AI
// call is logged and the remaining sources are used. Normalize then trims the
// result to what the YouTube API accepts.
package metadata
