package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/session"
)

// launcher abstracts audio player launching (consumer-defined interface)
type launcher interface {
	Launch(url string) (domain.PlayerProcess, error)
}

// launchRequest carries a track from Toggle to the playback listener.
type launchRequest struct {
	track domain.Track
	err   error
}

// PlaybackService keeps an external player in step with the session's
// playing track. Any change to the playing reference, including deletes
// that stop playback, stops the old player; a new reference starts one.
type PlaybackService struct {
	launcher launcher
	streams  domain.StreamResolver
	playback *session.Playback
	logger   *slog.Logger

	mu      sync.Mutex
	proc    domain.PlayerProcess
	procID  string
	pending *launchRequest

	// serializes listener work so players start and stop in order
	changeMu sync.Mutex
}

// NewPlaybackService creates a playback service and subscribes it to
// playback changes.
func NewPlaybackService(
	launcher launcher,
	streams domain.StreamResolver,
	playback *session.Playback,
	logger *slog.Logger,
) *PlaybackService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PlaybackService{
		launcher: launcher,
		streams:  streams,
		playback: playback,
		logger:   logger,
	}
	playback.OnChange(s.onChange)
	return s
}

// Toggle pauses track if it is playing, otherwise starts it and stops
// whatever was playing before. It reports whether track is now playing.
func (s *PlaybackService) Toggle(ctx context.Context, track domain.Track) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !s.playback.IsPlaying(track.ID) && !track.HasAudio() {
		return false, domain.ErrNoAudio
	}

	req := &launchRequest{track: track}
	s.mu.Lock()
	s.pending = req
	s.mu.Unlock()

	next := s.playback.Toggle(track.ID)

	s.mu.Lock()
	if s.pending == req {
		s.pending = nil
	}
	s.mu.Unlock()

	if req.err != nil {
		return false, req.err
	}
	return next == track.ID, nil
}

// Stop stops playback.
func (s *PlaybackService) Stop() {
	s.playback.Stop()
}

// Playing returns the id of the track being played, or "".
func (s *PlaybackService) Playing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procID
}

func (s *PlaybackService) onChange(prev, next string) {
	if failed := s.apply(next); failed != "" {
		s.playback.StopIf(failed)
	}
}

// apply stops the current player and starts one for next. It returns the
// id whose launch failed, if any.
func (s *PlaybackService) apply(next string) string {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	old, oldID := s.proc, s.procID
	s.proc, s.procID = nil, ""
	req := s.pending
	if req != nil && req.track.ID == next {
		s.pending = nil
	} else {
		req = nil
	}
	s.mu.Unlock()

	if old != nil {
		if err := old.Stop(); err != nil {
			s.logger.Warn("failed to stop player", "error", err, "trackID", oldID)
		}
	}
	if next == "" {
		return ""
	}
	if req == nil {
		s.logger.Warn("no track queued for playback", "trackID", next)
		return next
	}

	url := s.streams.AudioURL(req.track.AudioFile)
	s.logger.Info("starting playback", "title", req.track.Title, "trackID", next)

	proc, err := s.launcher.Launch(url)
	if err != nil {
		s.logger.Error("failed to launch player", "error", err, "trackID", next)
		req.err = err
		return next
	}

	s.mu.Lock()
	s.proc, s.procID = proc, next
	s.mu.Unlock()

	go s.watch(next, proc)
	return ""
}

// watch clears the playing reference when the player exits on its own.
func (s *PlaybackService) watch(id string, proc domain.PlayerProcess) {
	<-proc.Done()

	s.mu.Lock()
	current := s.proc == proc
	if current {
		s.proc, s.procID = nil, ""
	}
	s.mu.Unlock()

	if current {
		s.logger.Debug("player finished", "trackID", id)
		s.playback.StopIf(id)
	}
}
