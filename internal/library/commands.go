package library

import (
	"context"
	"strings"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/params"
	"github.com/mmcdole/trackctl/internal/query"
	"github.com/mmcdole/trackctl/internal/validate"
)

type updateArgs struct {
	id string
	in domain.UpdateTrackInput
}

type uploadArgs struct {
	id   string
	file domain.AudioFile
}

func (s *Service) initMutations() {
	s.create = query.NewMutation("create track",
		func(ctx context.Context, in domain.CreateTrackInput) (*domain.Track, error) {
			return s.client.CreateTrack(ctx, in)
		},
		query.MutationOptions[domain.CreateTrackInput, *domain.Track]{
			Logger: s.logger,
			OnSuccess: func(_ context.Context, _ domain.CreateTrackInput, t *domain.Track) {
				s.logger.Info("created track", "trackID", t.ID, "slug", t.Slug)
				s.tracks.Set(trackKey(t.ID), *t)
				s.invalidateLists()
				s.genres.Invalidate(query.All())
			},
		})

	s.update = query.NewMutation("update track",
		func(ctx context.Context, a updateArgs) (*domain.Track, error) {
			return s.client.UpdateTrack(ctx, a.id, a.in)
		},
		query.MutationOptions[updateArgs, *domain.Track]{
			Logger: s.logger,
			OnSuccess: func(_ context.Context, a updateArgs, t *domain.Track) {
				s.logger.Info("updated track", "trackID", t.ID)
				s.tracks.Set(trackKey(t.ID), *t)
				s.tracks.Invalidate(query.Prefix("slug:"))
				s.invalidateLists()
				if a.in.Genres != nil {
					s.genres.Invalidate(query.All())
				}
			},
		})

	s.remove = query.NewMutation("delete track",
		func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, s.client.DeleteTrack(ctx, id)
		},
		query.MutationOptions[string, struct{}]{
			Logger: s.logger,
			OnMutate: func(ctx context.Context, id string) (query.Optimistic, error) {
				return s.patchLists(ctx, id)
			},
			OnSuccess: func(_ context.Context, id string, _ struct{}) {
				s.logger.Info("deleted track", "trackID", id)
				s.session.Selection.Deselect(id)
				s.session.Playback.StopIf(id)
				s.forgetTracks(id)
				s.invalidateLists()
			},
		})

	s.removeBatch = query.NewMutation("delete tracks",
		func(ctx context.Context, ids []string) (*domain.BatchDeleteResult, error) {
			return s.client.DeleteTracks(ctx, ids)
		},
		query.MutationOptions[[]string, *domain.BatchDeleteResult]{
			Logger: s.logger,
			OnMutate: func(ctx context.Context, ids []string) (query.Optimistic, error) {
				return s.patchLists(ctx, ids...)
			},
			OnSuccess: func(_ context.Context, ids []string, res *domain.BatchDeleteResult) {
				s.logger.Info("deleted tracks", "requested", len(ids), "deleted", len(res.Success), "failed", len(res.Failed))
				if res.Partial() {
					s.logger.Warn("batch delete partially failed", "failed", res.Failed)
				}
				s.session.Selection.Clear()
				s.session.Playback.StopIf(res.Success...)
				s.forgetTracks(res.Success...)
				s.invalidateLists()
			},
		})

	s.upload = query.NewMutation("upload file",
		func(ctx context.Context, a uploadArgs) (*domain.Track, error) {
			return s.client.UploadFile(ctx, a.id, a.file)
		},
		query.MutationOptions[uploadArgs, *domain.Track]{
			Logger: s.logger,
			OnSuccess: func(_ context.Context, a uploadArgs, t *domain.Track) {
				s.logger.Info("uploaded file", "trackID", a.id, "file", t.AudioFile, "bytes", len(a.file.Body))
				s.tracks.Set(trackKey(t.ID), *t)
				s.invalidateLists()
			},
		})

	s.removeFile = query.NewMutation("delete file",
		func(ctx context.Context, id string) (*domain.Track, error) {
			return s.client.DeleteFile(ctx, id)
		},
		query.MutationOptions[string, *domain.Track]{
			Logger: s.logger,
			OnSuccess: func(_ context.Context, id string, t *domain.Track) {
				s.logger.Info("deleted file", "trackID", id)
				s.session.Playback.StopIf(id)
				s.tracks.Set(trackKey(t.ID), *t)
				s.invalidateLists()
			},
		})
}

// patchLists removes ids from every cached list page ahead of the request.
func (s *Service) patchLists(ctx context.Context, ids ...string) (query.Optimistic, error) {
	p, err := s.pages.Patch(ctx, query.Prefix(params.ListPrefix), func(r domain.PaginatedResult) domain.PaginatedResult {
		return r.Without(ids...)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) forgetTracks(ids ...string) {
	for _, id := range ids {
		s.tracks.Remove(query.Exact(trackKey(id)))
	}
	s.tracks.Invalidate(query.Prefix("slug:"))
}

// Busy reports whether any write is in flight.
func (s *Service) Busy() bool {
	return s.create.Pending() || s.update.Pending() || s.remove.Pending() ||
		s.removeBatch.Pending() || s.upload.Pending() || s.removeFile.Pending()
}

// CreateTrack validates in and creates the track.
func (s *Service) CreateTrack(ctx context.Context, in domain.CreateTrackInput) (*domain.Track, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Artist = strings.TrimSpace(in.Artist)
	in.Album = strings.TrimSpace(in.Album)
	in.CoverImage = strings.TrimSpace(in.CoverImage)
	if err := validate.Struct("create track", in); err != nil {
		return nil, err
	}
	return s.create.Run(ctx, in)
}

// UpdateTrack validates in and applies it to track id. An empty update
// returns the track unchanged without a request.
func (s *Service) UpdateTrack(ctx context.Context, id string, in domain.UpdateTrackInput) (*domain.Track, error) {
	if err := validate.Struct("update track", in); err != nil {
		return nil, err
	}
	if in.IsEmpty() {
		t, err := s.GetTrack(ctx, id)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	return s.update.Run(ctx, updateArgs{id: id, in: in})
}

// DeleteTrack deletes one track. The track disappears from cached lists at
// once and reappears if the request fails.
func (s *Service) DeleteTrack(ctx context.Context, id string) error {
	_, err := s.remove.Run(ctx, id)
	return err
}

// DeleteTracks deletes ids in one request with the same optimistic
// behavior as DeleteTrack. Ids the server could not delete are reported in
// the result.
func (s *Service) DeleteTracks(ctx context.Context, ids []string) (*domain.BatchDeleteResult, error) {
	if len(ids) == 0 {
		return &domain.BatchDeleteResult{Success: []string{}, Failed: []string{}}, nil
	}
	return s.removeBatch.Run(ctx, ids)
}

// DeleteSelected deletes every selected track.
func (s *Service) DeleteSelected(ctx context.Context) (*domain.BatchDeleteResult, error) {
	return s.DeleteTracks(ctx, s.session.Selection.IDs())
}

// UploadFile attaches an audio file to track id.
func (s *Service) UploadFile(ctx context.Context, id string, file domain.AudioFile) (*domain.Track, error) {
	return s.upload.Run(ctx, uploadArgs{id: id, file: file})
}

// RemoveFile deletes the audio file of track id, stopping playback of it.
func (s *Service) RemoveFile(ctx context.Context, id string) (*domain.Track, error) {
	return s.removeFile.Run(ctx, id)
}
