package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/trackctl/internal/adapter/source/rest"
	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/library"
	"github.com/mmcdole/trackctl/internal/params"
	"github.com/mmcdole/trackctl/internal/query"
	"github.com/mmcdole/trackctl/internal/service"
)

// Command factories for async operations

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 60 * time.Second
)

// LoadViewCmd loads the page for the current view state
func LoadViewCmd(svc *library.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()

		v, err := svc.LoadView(ctx)
		if errors.Is(err, domain.ErrSuperseded) {
			return nil
		}
		if err != nil {
			return ErrMsg{Err: err, Context: "loading tracks"}
		}
		return ViewLoadedMsg{View: v}
	}
}

// RefreshCmd marks cached reads stale and reloads the view
func RefreshCmd(svc *library.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()

		v, err := svc.Refresh(ctx)
		if errors.Is(err, domain.ErrSuperseded) {
			return nil
		}
		if err != nil {
			return ErrMsg{Err: err, Context: "refreshing tracks"}
		}
		return ViewLoadedMsg{View: v}
	}
}

// PrefetchNextCmd warms the cache with the next page
func PrefetchNextCmd(svc *library.Service, v library.View) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		svc.PrefetchNext(ctx, v)
		return nil
	}
}

// LoadGenresCmd loads the genre list
func LoadGenresCmd(svc *library.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()

		genres, err := svc.Genres(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading genres"}
		}
		return GenresLoadedMsg{Genres: genres}
	}
}

// WaitForUpdateCmd waits for the next cache update
func WaitForUpdateCmd(ch <-chan query.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return CacheUpdatedMsg{Update: u}
	}
}

// WaitForPlaybackCmd waits for the next change of the playing track
func WaitForPlaybackCmd(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		id, ok := <-ch
		if !ok {
			return nil
		}
		return PlaybackChangedMsg{Playing: id}
	}
}

// WaitForDebounceCmd waits for the next settled filter input
func WaitForDebounceCmd(d *params.Debouncer[DebouncedMsg]) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-d.Out()
		if !ok {
			return nil
		}
		return v
	}
}

// CreateTrackCmd creates a track
func CreateTrackCmd(svc *library.Service, in domain.CreateTrackInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		t, err := svc.CreateTrack(ctx, in)
		if err != nil {
			return MutationDoneMsg{Err: err}
		}
		return MutationDoneMsg{Toast: fmt.Sprintf("Created %q", t.Title)}
	}
}

// UpdateTrackCmd saves edits to a track
func UpdateTrackCmd(svc *library.Service, id string, in domain.UpdateTrackInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		t, err := svc.UpdateTrack(ctx, id, in)
		if err != nil {
			return MutationDoneMsg{Err: err}
		}
		return MutationDoneMsg{Toast: fmt.Sprintf("Saved %q", t.Title)}
	}
}

// DeleteTrackCmd deletes one track
func DeleteTrackCmd(svc *library.Service, t domain.Track) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := svc.DeleteTrack(ctx, t.ID); err != nil {
			return MutationDoneMsg{Err: err}
		}
		return MutationDoneMsg{Toast: fmt.Sprintf("Deleted %q", t.Title)}
	}
}

// DeleteSelectedCmd deletes every selected track
func DeleteSelectedCmd(svc *library.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		res, err := svc.DeleteSelected(ctx)
		if err != nil {
			return MutationDoneMsg{Err: err}
		}
		if res.Partial() {
			return MutationDoneMsg{
				Toast:  fmt.Sprintf("Deleted %d, %d failed", len(res.Success), len(res.Failed)),
				Failed: res.Failed,
			}
		}
		return MutationDoneMsg{Toast: fmt.Sprintf("Deleted %d tracks", len(res.Success))}
	}
}

// UploadFileCmd reads an audio file from disk and attaches it to a track
func UploadFileCmd(svc *library.Service, id, path string) tea.Cmd {
	return func() tea.Msg {
		file, err := rest.OpenAudioFile(path)
		if err != nil {
			return MutationDoneMsg{Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		t, err := svc.UploadFile(ctx, id, file)
		if err != nil {
			return MutationDoneMsg{Err: err}
		}
		return MutationDoneMsg{Toast: fmt.Sprintf("Uploaded audio for %q", t.Title)}
	}
}

// RemoveFileCmd detaches the audio file from a track
func RemoveFileCmd(svc *library.Service, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		t, err := svc.RemoveFile(ctx, id)
		if err != nil {
			return MutationDoneMsg{Err: err}
		}
		return MutationDoneMsg{Toast: fmt.Sprintf("Removed audio from %q", t.Title)}
	}
}

// TogglePlayCmd plays or pauses a track
func TogglePlayCmd(svc *service.PlaybackService, t domain.Track) tea.Cmd {
	return func() tea.Msg {
		playing, err := svc.Toggle(context.Background(), t)
		if err != nil {
			return ErrMsg{Err: err, Context: "playback"}
		}
		return PlaybackToggledMsg{Track: t, Playing: playing}
	}
}

// CopyViewCmd copies the shareable view query to the clipboard
func CopyViewCmd(q string) tea.Cmd {
	return func() tea.Msg {
		text := "?" + q
		if q == "" {
			text = "?"
		}
		if err := clipboard.WriteAll(text); err != nil {
			return StatusMsg{Message: "Clipboard unavailable: " + text, IsError: true}
		}
		return StatusMsg{Message: "Copied " + text}
	}
}

// ClearStatusCmd clears the status message after a delay
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
