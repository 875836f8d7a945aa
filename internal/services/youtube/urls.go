package youtube

import "strings"

// WatchURL returns the short public link for a video.
func WatchURL(videoID string) string {
	return "https://youtu.be/" + strings.TrimSpace(videoID)
}

// StudioURL returns the YouTube Studio edit page for a video.
func StudioURL(videoID string) string {
	return "https://studio.youtube.com/video/" + strings.TrimSpace(videoID) + "/edit"
}

// PlaylistURL returns the public link for a playlist.
func PlaylistURL(playlistID string) string {
	return "https://www.youtube.com/playlist?list=" + strings.TrimSpace(playlistID)
}
