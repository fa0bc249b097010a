package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/tui/styles"
)

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTracks renders tracks as a table
func printTracks(w io.Writer, tracks []domain.Track) {
	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		audio := ""
		if t.HasAudio() {
			audio = "♪"
		}
		rows[i] = []string{t.ID, styles.Truncate(t.Title, 40), styles.Truncate(t.Artist, 28), styles.Truncate(t.Album, 28), t.GenreList(), audio}
	}

	headerStyle := lipgloss.NewStyle().Foreground(styles.Accent).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	dimStyle := cellStyle.Foreground(styles.DimGray)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.SlateLight)).
		Headers("ID", "TITLE", "ARTIST", "ALBUM", "GENRES", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0 || col == 4:
				return dimStyle
			default:
				return cellStyle
			}
		})

	fmt.Fprintln(w, t.Render())
}

// printPageSummary prints the page position under a list
func printPageSummary(w io.Writer, meta domain.PageMeta, query string) {
	line := fmt.Sprintf("page %d/%d · %d tracks", meta.Page, meta.TotalPages, meta.Total)
	if query != "" {
		line += " · ?" + query
	}
	fmt.Fprintln(w, styles.DimStyle.Render(line))
}

// printTrack renders one track as labelled fields
func printTrack(w io.Writer, t domain.Track) {
	label := lipgloss.NewStyle().Foreground(styles.DimGray).Width(12)
	field := func(name, value string) {
		if value == "" {
			value = styles.DimStyle.Render("-")
		}
		fmt.Fprintln(w, label.Render(name)+value)
	}

	fmt.Fprintln(w, styles.TitleStyle.Render(t.Title))
	field("ID", t.ID)
	field("Slug", t.Slug)
	field("Artist", t.Artist)
	field("Album", t.Album)
	field("Genres", t.GenreList())
	field("Cover", t.CoverImage)
	field("Audio", t.AudioFile)
	if !t.CreatedAt.IsZero() {
		field("Created", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if !t.UpdatedAt.IsZero() {
		field("Updated", t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

// printGenres prints one genre per line
func printGenres(w io.Writer, genres []string) {
	fmt.Fprintln(w, strings.Join(genres, "\n"))
}
