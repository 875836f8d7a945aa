package publish

import (
	"context"

	"tubecast/internal/services/youtube"
	"tubecast/internal/upload"
)

// Platform is the subset of the YouTube client the pipeline drives.
type Platform interface {
	StartUpload(ctx context.Context, req youtube.InsertRequest, size int64, contentType string) (upload.Transport, error)
	SetThumbnail(ctx context.Context, videoID, imagePath string) error
	ResolvePlaylist(ctx context.Context, nameOrID, privacy string, create bool) (string, error)
	AddToPlaylist(ctx context.Context, playlistID, videoID string) error
}

// YouTube adapts a *youtube.Client to Platform.
func YouTube(client *youtube.Client) Platform {
	return youtubePlatform{client}
}

type youtubePlatform struct {
	*youtube.Client
}

func (p youtubePlatform) StartUpload(ctx context.Context, req youtube.InsertRequest, size int64, contentType string) (upload.Transport, error) {
	session, err := p.Client.StartUpload(ctx, req, size, contentType)
	if err != nil {
		return nil, err
	}
	return session, nil
}
