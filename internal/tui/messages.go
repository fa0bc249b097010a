package tui

import (
	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/library"
	"github.com/mmcdole/trackctl/internal/query"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ViewLoadedMsg carries the page for the current view
type ViewLoadedMsg struct {
	View library.View
}

// GenresLoadedMsg carries the known genre list
type GenresLoadedMsg struct {
	Genres []string
}

// CacheUpdatedMsg signals that a cache entry changed in the background
type CacheUpdatedMsg struct {
	Update query.Update
}

// PlaybackChangedMsg signals that the playing track changed
type PlaybackChangedMsg struct {
	Playing string
}

// PlaybackToggledMsg is the result of a play/pause request
type PlaybackToggledMsg struct {
	Track   domain.Track
	Playing bool
}

// DebouncedMsg carries a settled value typed into a live filter prompt
type DebouncedMsg struct {
	Field filterField
	Value string
}

// MutationDoneMsg reports the outcome of a write
type MutationDoneMsg struct {
	Toast string
	Err   error
	// Failed lists ids a batch delete could not remove.
	Failed []string
}

// ClearStatusMsg clears the status bar message if it is still the one
// identified by Seq
type ClearStatusMsg struct {
	Seq int
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
