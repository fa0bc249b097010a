// Package params keeps the track list's filter, sort and pagination state
// and maps it to and from the shareable query string.
package params

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/validate"
)

// Recognized query string keys.
const (
	KeyPage   = "page"
	KeyLimit  = "limit"
	KeySort   = "sort"
	KeyOrder  = "order"
	KeySearch = "search"
	KeyGenre  = "genre"
	KeyArtist = "artist"
)

// Parse reads QueryParams from query values. Each field is trimmed and
// checked on its own; a field that fails is treated as absent. The
// assembled params are then validated as a whole and replaced by
// Defaults(limit) if that fails. Page and limit are always filled.
func Parse(q url.Values, defaultLimit int) domain.QueryParams {
	var p domain.QueryParams

	if n, ok := positiveInt(q.Get(KeyPage)); ok {
		p.Page = n
	}
	if n, ok := positiveInt(q.Get(KeyLimit)); ok {
		p.Limit = n
	}
	if s := domain.SortField(strings.TrimSpace(q.Get(KeySort))); s.Valid() {
		p.Sort = s
	}
	if o := domain.SortOrder(strings.TrimSpace(q.Get(KeyOrder))); o.Valid() {
		p.Order = o
	}
	p.Search = strings.TrimSpace(q.Get(KeySearch))
	p.Genre = strings.TrimSpace(q.Get(KeyGenre))
	p.Artist = strings.TrimSpace(q.Get(KeyArtist))

	if err := validate.Struct("parse params", p); err != nil {
		return Defaults(defaultLimit)
	}
	return FillDefaults(p, defaultLimit)
}

// ParseQuery parses a raw query string or a full URL.
func ParseQuery(raw string, defaultLimit int) domain.QueryParams {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return Defaults(defaultLimit)
	}
	return Parse(q, defaultLimit)
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Defaults returns the first page at the given page size.
func Defaults(limit int) domain.QueryParams {
	if limit <= 0 || limit > domain.MaxLimit {
		limit = domain.DefaultLimit
	}
	return domain.QueryParams{Page: domain.DefaultPage, Limit: limit}
}

// FillDefaults sets page and limit when absent.
func FillDefaults(p domain.QueryParams, limit int) domain.QueryParams {
	d := Defaults(limit)
	if p.Page <= 0 {
		p.Page = d.Page
	}
	if p.Limit <= 0 {
		p.Limit = d.Limit
	}
	return p
}

// Values converts p to query values, omitting absent fields.
func Values(p domain.QueryParams) url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set(KeyPage, strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set(KeyLimit, strconv.Itoa(p.Limit))
	}
	if p.Sort != "" {
		q.Set(KeySort, string(p.Sort))
	}
	if p.Order != "" {
		q.Set(KeyOrder, string(p.Order))
	}
	if p.Search != "" {
		q.Set(KeySearch, p.Search)
	}
	if p.Genre != "" {
		q.Set(KeyGenre, p.Genre)
	}
	if p.Artist != "" {
		q.Set(KeyArtist, p.Artist)
	}
	return q
}

// Encode returns the canonical query string for p: keys sorted, absent
// fields omitted.
func Encode(p domain.QueryParams) string {
	return Values(p).Encode()
}

// ListPrefix starts every list cache key.
const ListPrefix = "tracks?"

// Key returns the cache key for the list read described by p.
func Key(p domain.QueryParams) string {
	return ListPrefix + Encode(p.WithDefaults())
}

// Describe renders the active filters for display, e.g.
// `search "love" · genre rock · sort artist desc`.
func Describe(p domain.QueryParams) string {
	var parts []string
	if p.Search != "" {
		parts = append(parts, strconv.Quote(p.Search))
	}
	if p.Genre != "" {
		parts = append(parts, "genre "+p.Genre)
	}
	if p.Artist != "" {
		parts = append(parts, "artist "+p.Artist)
	}
	if p.Sort != "" {
		s := "sort " + string(p.Sort)
		if p.Order != "" {
			s += " " + string(p.Order)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " · ")
}
