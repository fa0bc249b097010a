package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/search"
	"github.com/mmcdole/trackctl/internal/tui/styles"
)

// Row markers
const (
	PlayingChar  = "▶"
	SelectedChar = "■"
	EmptyBoxChar = "□"
	AudioChar    = "♪"
)

// TrackTable renders one page of tracks with a cursor
type TrackTable struct {
	rows   []search.Match
	cursor int
	offset int
	width  int
	height int

	filter string
}

// NewTrackTable creates an empty table
func NewTrackTable() TrackTable {
	return TrackTable{}
}

// SetTracks replaces the rows, keeping the cursor on the same track when
// it is still present
func (t *TrackTable) SetTracks(tracks []domain.Track) {
	var keep string
	if cur, ok := t.Selected(); ok {
		keep = cur.ID
	}
	t.rows = search.FilterPage(t.filter, tracks)
	t.cursor = 0
	for i, r := range t.rows {
		if r.Track.ID == keep {
			t.cursor = i
			break
		}
	}
	t.clamp()
}

// SetFilter narrows the rows to those matching query
func (t *TrackTable) SetFilter(query string, tracks []domain.Track) {
	t.filter = query
	t.rows = search.FilterPage(query, tracks)
	t.cursor = 0
	t.offset = 0
}

// Filter returns the local filter query
func (t TrackTable) Filter() string {
	return t.filter
}

// SetSize sets the table dimensions
func (t *TrackTable) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.clamp()
}

// Len returns the number of visible rows
func (t TrackTable) Len() int {
	return len(t.rows)
}

// Selected returns the track under the cursor
func (t TrackTable) Selected() (domain.Track, bool) {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return domain.Track{}, false
	}
	return t.rows[t.cursor].Track, true
}

// IDs returns the ids of the visible rows
func (t TrackTable) IDs() []string {
	ids := make([]string, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r.Track.ID
	}
	return ids
}

// MoveUp moves the cursor up
func (t *TrackTable) MoveUp() {
	t.cursor--
	t.clamp()
}

// MoveDown moves the cursor down
func (t *TrackTable) MoveDown() {
	t.cursor++
	t.clamp()
}

// Top moves the cursor to the first row
func (t *TrackTable) Top() {
	t.cursor = 0
	t.clamp()
}

// Bottom moves the cursor to the last row
func (t *TrackTable) Bottom() {
	t.cursor = len(t.rows) - 1
	t.clamp()
}

func (t *TrackTable) clamp() {
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	visible := t.visibleRows()
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if visible > 0 && t.cursor >= t.offset+visible {
		t.offset = t.cursor - visible + 1
	}
}

func (t TrackTable) visibleRows() int {
	return max(t.height-1, 1) // header
}

type columnWidths struct {
	title, artist, album, genres int
}

func (t TrackTable) columns() columnWidths {
	// markers: selection + playing + audio + spacing
	avail := max(t.width-10, 20)
	return columnWidths{
		title:  avail * 35 / 100,
		artist: avail * 25 / 100,
		album:  avail * 20 / 100,
		genres: avail - avail*35/100 - avail*25/100 - avail*20/100,
	}
}

// View renders the table. isSelected and isPlaying report session state
// for a track id.
func (t TrackTable) View(isSelected, isPlaying func(string) bool) string {
	cols := t.columns()

	header := "      " +
		styles.Pad("Title", cols.title) + " " +
		styles.Pad("Artist", cols.artist) + " " +
		styles.Pad("Album", cols.album) + " " +
		styles.Pad("Genres", cols.genres)
	lines := []string{styles.HeaderStyle.Render(styles.Truncate(header, t.width))}

	if len(t.rows) == 0 {
		msg := "No tracks"
		if t.filter != "" {
			msg = fmt.Sprintf("No tracks on this page match %q", t.filter)
		}
		lines = append(lines, styles.DimStyle.Render("  "+msg))
		return strings.Join(lines, "\n")
	}

	end := min(t.offset+t.visibleRows(), len(t.rows))
	for i := t.offset; i < end; i++ {
		lines = append(lines, t.renderRow(t.rows[i], i == t.cursor, cols, isSelected, isPlaying))
	}
	return strings.Join(lines, "\n")
}

func (t TrackTable) renderRow(m search.Match, cursor bool, cols columnWidths, isSelected, isPlaying func(string) bool) string {
	tr := m.Track
	base := styles.RowBackground(cursor)

	box := EmptyBoxChar
	var boxFg *lipgloss.Color
	if isSelected(tr.ID) {
		box = SelectedChar
		boxFg = &styles.Accent
	}

	play := " "
	var playFg *lipgloss.Color
	if isPlaying(tr.ID) {
		play = PlayingChar
		playFg = &styles.Green
	}

	audio := " "
	if tr.HasAudio() {
		audio = AudioChar
	}

	parts := []styles.RowPart{
		{Text: box, Foreground: boxFg},
		{Text: " "},
		{Text: play, Foreground: playFg, Bold: true},
		{Text: audio},
		{Text: " "},
		{Text: styles.Highlight(tr.Title, m.TitleIndexes, cols.title, base), Raw: true},
		{Text: " "},
		{Text: styles.Pad(tr.Artist, cols.artist)},
		{Text: " "},
		{Text: styles.Pad(tr.Album, cols.album)},
		{Text: " "},
		{Text: styles.Pad(tr.GenreList(), cols.genres), Foreground: &styles.DimGray},
	}
	return styles.RenderListRow(parts, cursor, t.width)
}
