package library

import "github.com/mmcdole/trackctl/internal/params"

// Cache-only reads. None of these touch the network.

// CurrentView returns the cached page for the current view state. Status
// is set even when no page is held.
func (s *Service) CurrentView() (View, bool) {
	p := s.view.Params()
	e, ok := s.pages.Get(params.Key(p))
	if !ok {
		return View{Params: p}, false
	}
	if !e.HasData {
		return View{Params: p, Status: e.Status}, false
	}
	return View{Params: p, Page: e.Data, Stale: e.Stale, Status: e.Status}, true
}

// CachedGenres returns the cached genre list.
func (s *Service) CachedGenres() ([]string, bool) {
	e, ok := s.genres.Get(genresKey)
	if !ok || !e.HasData {
		return nil, false
	}
	return e.Data, true
}
