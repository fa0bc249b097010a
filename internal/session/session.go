// Package session holds the per-session UI state that outlives any one
// rendering of the list: the multi-selection and the playing track.
package session

import (
	"slices"
	"sync"
)

// State is the application-state container. It is built once at startup
// and handed to the components that need it.
type State struct {
	Selection *Selection
	Playback  *Playback
}

// New creates empty session state.
func New() *State {
	return &State{
		Selection: NewSelection(),
		Playback:  NewPlayback(),
	}
}

// Selection is the set of track ids checked for bulk operations.
type Selection struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Select adds id.
func (s *Selection) Select(id string) {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
}

// Deselect removes ids. Absent ids are ignored.
func (s *Selection) Deselect(ids ...string) {
	s.mu.Lock()
	for _, id := range ids {
		delete(s.ids, id)
	}
	s.mu.Unlock()
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll adds every id.
func (s *Selection) SelectAll(ids []string) {
	s.mu.Lock()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	s.mu.Unlock()
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	clear(s.ids)
	s.mu.Unlock()
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Playback tracks the single playing track. An empty id means nothing is
// playing.
type Playback struct {
	mu        sync.Mutex
	playing   string
	listeners []func(prev, next string)
}

// NewPlayback creates stopped playback state.
func NewPlayback() *Playback {
	return &Playback{}
}

// OnChange registers fn to run after the playing id changes.
func (p *Playback) OnChange(fn func(prev, next string)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Playing returns the playing id, or "" when stopped.
func (p *Playback) Playing() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// IsPlaying reports whether id is the playing track.
func (p *Playback) IsPlaying(id string) bool {
	return id != "" && p.Playing() == id
}

// Toggle pauses id if it is playing, otherwise makes it the playing track.
// It returns the new playing id.
func (p *Playback) Toggle(id string) string {
	return p.set(func(cur string) string {
		if cur == id {
			return ""
		}
		return id
	})
}

// Stop clears the playing track.
func (p *Playback) Stop() {
	p.set(func(string) string { return "" })
}

// StopIf clears the playing track if it is one of ids. It reports whether
// playback was stopped.
func (p *Playback) StopIf(ids ...string) bool {
	stopped := false
	p.set(func(cur string) string {
		if cur != "" && slices.Contains(ids, cur) {
			stopped = true
			return ""
		}
		return cur
	})
	return stopped
}

func (p *Playback) set(fn func(cur string) string) string {
	p.mu.Lock()
	prev := p.playing
	next := fn(prev)
	p.playing = next
	listeners := slices.Clone(p.listeners)
	p.mu.Unlock()

	if prev != next {
		for _, l := range listeners {
			l(prev, next)
		}
	}
	return next
}
