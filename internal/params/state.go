package params

import (
	"slices"
	"sync"

	"github.com/mmcdole/trackctl/internal/domain"
)

// State is the single source of truth for the current list view.
// Changing anything other than the page resets the page to 1.
type State struct {
	mu           sync.RWMutex
	p            domain.QueryParams
	defaultLimit int
	listeners    []func(domain.QueryParams)
}

// NewState creates a view state starting at p.
func NewState(p domain.QueryParams, defaultLimit int) *State {
	return &State{p: FillDefaults(p, defaultLimit), defaultLimit: defaultLimit}
}

// OnChange registers fn to run after every change.
func (s *State) OnChange(fn func(domain.QueryParams)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Params returns the current params.
func (s *State) Params() domain.QueryParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// HasActiveFilters reports whether search, genre, artist or sort is set.
func (s *State) HasActiveFilters() bool {
	return s.Params().HasActiveFilters()
}

// Query returns the shareable query string for the current view.
func (s *State) Query() string {
	return Encode(s.Params())
}

// Load replaces the view with the one described by a query string or URL.
func (s *State) Load(raw string) bool {
	return s.update(func(p *domain.QueryParams) {
		*p = ParseQuery(raw, s.defaultLimit)
	})
}

// SetSearch sets the free-text search.
func (s *State) SetSearch(v string) bool {
	return s.filter(func(p *domain.QueryParams) { p.Search = v })
}

// SetGenre sets the exact genre filter.
func (s *State) SetGenre(v string) bool {
	return s.filter(func(p *domain.QueryParams) { p.Genre = v })
}

// SetArtist sets the artist filter.
func (s *State) SetArtist(v string) bool {
	return s.filter(func(p *domain.QueryParams) { p.Artist = v })
}

// SetSort sets the sort field and order. Invalid values clear them.
func (s *State) SetSort(field domain.SortField, order domain.SortOrder) bool {
	return s.filter(func(p *domain.QueryParams) {
		p.Sort = ""
		if field.Valid() {
			p.Sort = field
		}
		p.Order = ""
		if order.Valid() {
			p.Order = order
		}
	})
}

// ToggleOrder flips the sort direction.
func (s *State) ToggleOrder() bool {
	return s.filter(func(p *domain.QueryParams) { p.Order = p.Order.Toggle() })
}

// SetLimit changes the page size.
func (s *State) SetLimit(n int) bool {
	return s.filter(func(p *domain.QueryParams) {
		if n > 0 && n <= domain.MaxLimit {
			p.Limit = n
		}
	})
}

// SetPage moves to page n and leaves everything else alone.
func (s *State) SetPage(n int) bool {
	return s.update(func(p *domain.QueryParams) {
		p.Page = max(n, 1)
	})
}

// NextPage advances one page if totalPages allows it.
func (s *State) NextPage(totalPages int) bool {
	p := s.Params()
	if p.Page >= totalPages {
		return false
	}
	return s.SetPage(p.Page + 1)
}

// PrevPage goes back one page.
func (s *State) PrevPage() bool {
	p := s.Params()
	if p.Page <= 1 {
		return false
	}
	return s.SetPage(p.Page - 1)
}

// Clear resets search, genre, artist, sort and order, and returns to page 1.
func (s *State) Clear() bool {
	return s.update(func(p *domain.QueryParams) {
		p.Search = ""
		p.Genre = ""
		p.Artist = ""
		p.Sort = ""
		p.Order = ""
		p.Page = domain.DefaultPage
	})
}

func (s *State) filter(fn func(p *domain.QueryParams)) bool {
	return s.update(func(p *domain.QueryParams) {
		before := *p
		fn(p)
		if *p != before {
			p.Page = domain.DefaultPage
		}
	})
}

func (s *State) update(fn func(p *domain.QueryParams)) bool {
	s.mu.Lock()
	before := s.p
	fn(&s.p)
	s.p = FillDefaults(s.p, s.defaultLimit)
	after := s.p
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if after == before {
		return false
	}
	for _, fn := range listeners {
		fn(after)
	}
	return true
}
