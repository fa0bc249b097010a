package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/tui/styles"
)

const (
	fieldTitle = iota
	fieldArtist
	fieldAlbum
	fieldGenres
	fieldCover
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Artist", "Album", "Genres", "Cover image"}

// TrackForm edits the metadata of a new or existing track
type TrackForm struct {
	visible  bool
	editing  bool
	original domain.Track
	inputs   [fieldCount]textinput.Model
	focus    int
	errors   []string

	suggest func(string) []string
	hint    string
}

// NewTrackForm creates a new track form
func NewTrackForm() TrackForm {
	var f TrackForm
	placeholders := [fieldCount]string{"required", "required", "", "comma separated", "https://..."}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 200
		ti.Width = 40
		ti.Placeholder = placeholders[i]
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		f.inputs[i] = ti
	}
	return f
}

// ShowCreate opens an empty form
func (f *TrackForm) ShowCreate(suggest func(string) []string) {
	f.show(domain.Track{}, false, suggest)
}

// ShowEdit opens the form filled with t
func (f *TrackForm) ShowEdit(t domain.Track, suggest func(string) []string) {
	f.show(t, true, suggest)
}

func (f *TrackForm) show(t domain.Track, editing bool, suggest func(string) []string) {
	f.visible = true
	f.editing = editing
	f.original = t
	f.errors = nil
	f.suggest = suggest
	f.hint = ""
	values := [fieldCount]string{t.Title, t.Artist, t.Album, t.GenreList(), t.CoverImage}
	for i := range f.inputs {
		f.inputs[i].SetValue(values[i])
		f.inputs[i].CursorEnd()
	}
	f.setFocus(fieldTitle)
}

// Hide dismisses the form
func (f *TrackForm) Hide() {
	f.visible = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

// IsVisible returns whether the form is shown
func (f TrackForm) IsVisible() bool {
	return f.visible
}

// Editing reports whether the form edits an existing track
func (f TrackForm) Editing() bool {
	return f.editing
}

// Original returns the track being edited
func (f TrackForm) Original() domain.Track {
	return f.original
}

// SetErrors shows validation messages under the form
func (f *TrackForm) SetErrors(errs []string) {
	f.errors = errs
}

// Edited returns the track as currently entered
func (f TrackForm) Edited() domain.Track {
	t := f.original
	t.Title = strings.TrimSpace(f.inputs[fieldTitle].Value())
	t.Artist = strings.TrimSpace(f.inputs[fieldArtist].Value())
	t.Album = strings.TrimSpace(f.inputs[fieldAlbum].Value())
	t.Genres = domain.ParseGenres(f.inputs[fieldGenres].Value())
	t.CoverImage = strings.TrimSpace(f.inputs[fieldCover].Value())
	return t
}

// CreateInput returns the form as a create payload
func (f TrackForm) CreateInput() domain.CreateTrackInput {
	t := f.Edited()
	return domain.CreateTrackInput{
		Title:      t.Title,
		Artist:     t.Artist,
		Album:      t.Album,
		Genres:     t.Genres,
		CoverImage: t.CoverImage,
	}
}

// UpdateInput returns only the fields that changed
func (f TrackForm) UpdateInput() domain.UpdateTrackInput {
	return domain.DiffTrack(f.original, f.Edited())
}

func (f *TrackForm) setFocus(i int) {
	f.focus = (i + fieldCount) % fieldCount
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	f.updateHint()
}

// updateHint suggests a completion for the genre being typed
func (f *TrackForm) updateHint() {
	f.hint = ""
	if f.focus != fieldGenres || f.suggest == nil {
		return
	}
	value := f.inputs[fieldGenres].Value()
	i := strings.LastIndex(value, ",")
	partial := strings.TrimSpace(value[i+1:])
	if partial == "" {
		return
	}
	for _, s := range f.suggest(partial) {
		if !strings.EqualFold(s, partial) {
			f.hint = s
			return
		}
	}
}

func (f *TrackForm) acceptHint() {
	value := f.inputs[fieldGenres].Value()
	i := strings.LastIndex(value, ",")
	prefix := ""
	if i >= 0 {
		prefix = value[:i+1] + " "
	}
	f.inputs[fieldGenres].SetValue(prefix + f.hint + ", ")
	f.inputs[fieldGenres].CursorEnd()
	f.hint = ""
}

// Update handles input events, returns (form, cmd, submitted)
func (f TrackForm) Update(msg tea.Msg) (TrackForm, tea.Cmd, bool) {
	if !f.visible {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			f.Hide()
			return f, nil, false
		case "ctrl+s":
			return f, nil, true
		case "enter":
			if f.focus == fieldCount-1 {
				return f, nil, true
			}
			f.setFocus(f.focus + 1)
			return f, nil, false
		case "tab":
			if f.focus == fieldGenres && f.hint != "" {
				f.acceptHint()
				return f, nil, false
			}
			f.setFocus(f.focus + 1)
			return f, nil, false
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return f, nil, false
		case "down":
			f.setFocus(f.focus + 1)
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	f.updateHint()
	return f, cmd, false
}

// View renders the form
func (f TrackForm) View() string {
	if !f.visible {
		return ""
	}

	title := "New track"
	if f.editing {
		title = "Edit " + f.original.Title
	}

	var rows []string
	for i := range f.inputs {
		label := styles.Pad(fieldLabels[i], 13)
		if i == f.focus {
			label = styles.AccentStyle.Render(label)
		} else {
			label = styles.DimStyle.Render(label)
		}
		row := label + f.inputs[i].View()
		if i == fieldGenres && i == f.focus && f.hint != "" {
			row += styles.DimStyle.Render("  tab: " + f.hint)
		}
		rows = append(rows, row)
	}

	if len(f.errors) > 0 {
		rows = append(rows, "")
		for _, e := range f.errors {
			rows = append(rows, styles.ErrorStyle.Render("• "+e))
		}
	}

	rows = append(rows, "", styles.DimStyle.Render("enter next · ctrl+s save · esc cancel"))

	return styles.ModalStyle.Render(
		styles.ModalTitleStyle.Render(title) + "\n" + strings.Join(rows, "\n"),
	)
}
