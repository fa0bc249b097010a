// Package search provides local fuzzy matching over data already in the
// client: the loaded page of tracks and the known genre list.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/trackctl/internal/domain"
)

// Match is a track that matched a page filter.
type Match struct {
	Track domain.Track
	// Index is the position of the track in the filtered page.
	Index int
	// TitleIndexes are rune positions in the title that matched, for
	// highlighting.
	TitleIndexes []int
	Score        int
}

// trackIndex implements fuzzy.Source over "title artist album" lines.
type trackIndex struct {
	tracks []domain.Track
	lines  []string // lowercase
}

func newTrackIndex(tracks []domain.Track) *trackIndex {
	idx := &trackIndex{tracks: tracks, lines: make([]string, len(tracks))}
	for i, t := range tracks {
		idx.lines[i] = strings.ToLower(t.Title + " " + t.Artist + " " + t.Album)
	}
	return idx
}

// String returns the searchable line at index i (implements fuzzy.Source)
func (idx *trackIndex) String(i int) string { return idx.lines[i] }

// Len returns the number of tracks (implements fuzzy.Source)
func (idx *trackIndex) Len() int { return len(idx.tracks) }

// FilterPage fuzzy-matches query against the title, artist and album of
// each track. Results are ordered best first. An empty query matches
// every track in page order.
func FilterPage(query string, tracks []domain.Track) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]Match, len(tracks))
		for i, t := range tracks {
			out[i] = Match{Track: t, Index: i}
		}
		return out
	}

	idx := newTrackIndex(tracks)
	found := fuzzy.FindFrom(query, idx)

	out := make([]Match, 0, len(found))
	for _, m := range found {
		t := tracks[m.Index]
		out = append(out, Match{
			Track:        t,
			Index:        m.Index,
			TitleIndexes: titleRunes(idx.lines[m.Index], len(t.Title), m.MatchedIndexes),
			Score:        m.Score,
		})
	}
	return out
}

// titleRunes converts byte offsets in line to rune positions, keeping
// those that fall inside the leading title.
func titleRunes(line string, titleLen int, offsets []int) []int {
	var out []int
	for _, off := range offsets {
		if off >= titleLen || off > len(line) {
			continue
		}
		out = append(out, utf8.RuneCountInString(line[:off]))
	}
	return out
}

// SuggestGenres ranks genres against input, closest first. Matching is
// case-insensitive; an empty input returns all genres sorted.
func SuggestGenres(input string, genres []string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		out := append([]string(nil), genres...)
		sort.Strings(out)
		return out
	}

	ranks := lfuzzy.RankFindFold(input, genres)
	sort.SliceStable(ranks, func(i, j int) bool {
		a, b := ranks[i], ranks[j]
		ap := strings.HasPrefix(strings.ToLower(a.Target), strings.ToLower(input))
		bp := strings.HasPrefix(strings.ToLower(b.Target), strings.ToLower(input))
		if ap != bp {
			return ap
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return a.Target < b.Target
	})

	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
