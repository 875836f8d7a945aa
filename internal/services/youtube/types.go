package youtube

import (
	"strconv"
	"time"
)

// Privacy values accepted by the API.
const (
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
	PrivacyPublic   = "public"
)

// Video is the subset of the videos resource used by the CLI.
type Video struct {
	ID             string        `json:"id"`
	Snippet        VideoSnippet  `json:"snippet"`
	Status         VideoStatus   `json:"status"`
	Statistics     *VideoStats   `json:"statistics,omitempty"`
	ContentDetails *VideoDetails `json:"contentDetails,omitempty"`
}

type VideoSnippet struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags,omitempty"`
	CategoryID  string    `json:"categoryId,omitempty"`
	ChannelID   string    `json:"channelId,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

type VideoStatus struct {
	PrivacyStatus           string `json:"privacyStatus,omitempty"`
	UploadStatus            string `json:"uploadStatus,omitempty"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
	ContainsSyntheticMedia  bool   `json:"containsSyntheticMedia"`
}

// VideoStats holds counters the API returns as decimal strings.
type VideoStats struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

// Views parses ViewCount, returning zero when absent.
func (s *VideoStats) Views() uint64 {
	if s == nil {
		return 0
	}
	return parseCount(s.ViewCount)
}

// Likes parses LikeCount, returning zero when absent.
func (s *VideoStats) Likes() uint64 {
	if s == nil {
		return 0
	}
	return parseCount(s.LikeCount)
}

func parseCount(value string) uint64 {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type VideoDetails struct {
	Duration   string `json:"duration"`
	Definition string `json:"definition"`
}

// PlaylistItem is one entry of a playlist, such as the channel's uploads.
type PlaylistItem struct {
	ID      string              `json:"id"`
	Snippet PlaylistItemSnippet `json:"snippet"`
	Status  struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
}

type PlaylistItemSnippet struct {
	Title       string     `json:"title"`
	PlaylistID  string     `json:"playlistId"`
	PublishedAt time.Time  `json:"publishedAt,omitzero"`
	ResourceID  ResourceID `json:"resourceId"`
}

type ResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

// Playlist is a channel playlist.
type Playlist struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
	ContentDetails struct {
		ItemCount int `json:"itemCount"`
	} `json:"contentDetails"`
}

// Channel is the authenticated user's channel.
type Channel struct {
	ID      string `json:"id"`
	Snippet struct {
		Title string `json:"title"`
	} `json:"snippet"`
	ContentDetails struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

type listResponse[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}
