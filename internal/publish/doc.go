// Package publish runs the end-to-end pipeline for one video: file checks,
// metadata resolution, a history record, the resumable upload itself and the
// optional thumbnail and playlist steps.
//
// The upload and batch commands both go through Publisher.Publish so that a
// video uploaded either way leaves the same log lines and history row.
// Thumbnail and playlist failures happen after the video exists; they are
// reported as warnings on the Result instead of failing the publish.
package publish
