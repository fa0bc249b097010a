package domain

import "context"

// TrackClient is the capability set of the remote catalog. One concrete
// transport is chosen when the application is assembled.
type TrackClient interface {
	ListTracks(ctx context.Context, params QueryParams) (*PaginatedResult, error)
	GetTrack(ctx context.Context, id string) (*Track, error)
	GetTrackBySlug(ctx context.Context, slug string) (*Track, error)
	CreateTrack(ctx context.Context, in CreateTrackInput) (*Track, error)
	UpdateTrack(ctx context.Context, id string, in UpdateTrackInput) (*Track, error)
	DeleteTrack(ctx context.Context, id string) error
	DeleteTracks(ctx context.Context, ids []string) (*BatchDeleteResult, error)
	UploadFile(ctx context.Context, id string, file AudioFile) (*Track, error)
	DeleteFile(ctx context.Context, id string) (*Track, error)
	ListGenres(ctx context.Context) ([]string, error)
}

// StreamResolver turns a track's audio file reference into a playable URL.
type StreamResolver interface {
	AudioURL(audioFile string) string
}
