package domain

import "slices"

// SortField is a column the track list can be ordered by.
type SortField string

const (
	SortTitle     SortField = "title"
	SortArtist    SortField = "artist"
	SortAlbum     SortField = "album"
	SortCreatedAt SortField = "createdAt"
)

// SortFields lists the accepted sort fields in display order.
var SortFields = []SortField{SortTitle, SortArtist, SortAlbum, SortCreatedAt}

// Valid reports whether f is one of the accepted sort fields.
func (f SortField) Valid() bool {
	return slices.Contains(SortFields, f)
}

// Label returns a human-readable name for the sort field.
func (f SortField) Label() string {
	switch f {
	case SortTitle:
		return "Title"
	case SortArtist:
		return "Artist"
	case SortAlbum:
		return "Album"
	case SortCreatedAt:
		return "Date Added"
	default:
		return "Default"
	}
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Valid reports whether o is asc or desc.
func (o SortOrder) Valid() bool {
	return o == OrderAsc || o == OrderDesc
}

// Toggle flips the direction. An unset order becomes descending.
func (o SortOrder) Toggle() SortOrder {
	if o == OrderDesc {
		return OrderAsc
	}
	return OrderDesc
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// QueryParams describes which page of which filtered, sorted track list is
// being viewed. Zero values mean "absent".
type QueryParams struct {
	Page   int       `json:"page,omitempty" validate:"omitempty,min=1"`
	Limit  int       `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Sort   SortField `json:"sort,omitempty" validate:"omitempty,oneof=title artist album createdAt"`
	Order  SortOrder `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
	Search string    `json:"search,omitempty"`
	Genre  string    `json:"genre,omitempty"`
	Artist string    `json:"artist,omitempty"`
}

// WithDefaults fills page and limit when absent.
func (p QueryParams) WithDefaults() QueryParams {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// HasActiveFilters is true when search, genre, artist or sort is set.
// Page and limit alone do not count.
func (p QueryParams) HasActiveFilters() bool {
	return p.Search != "" || p.Genre != "" || p.Artist != "" || p.Sort != ""
}

// PageMeta describes where a page sits in the full result set.
type PageMeta struct {
	Total      int `json:"total" validate:"min=0"`
	Page       int `json:"page" validate:"min=1"`
	Limit      int `json:"limit" validate:"min=1"`
	TotalPages int `json:"totalPages" validate:"min=0"`
}

// TotalPages returns ceil(total/limit), or 0 for an empty result.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// PaginatedResult is one page of tracks plus its metadata.
type PaginatedResult struct {
	Data []Track  `json:"data" validate:"required,dive"`
	Meta PageMeta `json:"meta"`
}

// HasNext reports whether a page after this one exists.
func (r PaginatedResult) HasNext() bool {
	return r.Meta.Page < r.Meta.TotalPages
}

// HasPrev reports whether a page before this one exists.
func (r PaginatedResult) HasPrev() bool {
	return r.Meta.Page > 1
}

// Without returns the page with the given ids filtered out and the total
// reduced by the number of tracks actually removed. Ids not on the page are
// ignored. The receiver is not modified.
func (r PaginatedResult) Without(ids ...string) PaginatedResult {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	out := PaginatedResult{Meta: r.Meta, Data: make([]Track, 0, len(r.Data))}
	for _, t := range r.Data {
		if _, ok := drop[t.ID]; ok {
			continue
		}
		out.Data = append(out.Data, t)
	}

	removed := len(r.Data) - len(out.Data)
	out.Meta.Total = max(r.Meta.Total-removed, 0)
	out.Meta.TotalPages = TotalPages(out.Meta.Total, out.Meta.Limit)
	return out
}

// Find returns the track with id on this page.
func (r PaginatedResult) Find(id string) (Track, bool) {
	for _, t := range r.Data {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}
