package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/trackctl/internal/tui/styles"
)

const maxSuggestions = 6

// InputModal is a single-line text prompt with optional suggestions
type InputModal struct {
	visible bool
	title   string
	input   textinput.Model

	suggest     func(string) []string
	suggestions []string
	cursor      int // -1 when no suggestion is highlighted
}

// NewInputModal creates a new input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return InputModal{
		input:  ti,
		cursor: -1,
	}
}

// Show displays the modal with a title and initial value
func (m *InputModal) Show(title, placeholder, value string) {
	m.visible = true
	m.title = title
	m.suggest = nil
	m.suggestions = nil
	m.cursor = -1
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// ShowWithSuggestions displays the modal and lists suggest(value) below
// the input as the user types
func (m *InputModal) ShowWithSuggestions(title, placeholder, value string, suggest func(string) []string) {
	m.Show(title, placeholder, value)
	m.suggest = suggest
	m.refreshSuggestions()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the current input value, or the highlighted suggestion
func (m InputModal) Value() string {
	if m.cursor >= 0 && m.cursor < len(m.suggestions) {
		return m.suggestions[m.cursor]
	}
	return m.input.Value()
}

func (m *InputModal) refreshSuggestions() {
	m.cursor = -1
	if m.suggest == nil {
		m.suggestions = nil
		return
	}
	m.suggestions = m.suggest(m.input.Value())
	if len(m.suggestions) > maxSuggestions {
		m.suggestions = m.suggestions[:maxSuggestions]
	}
}

// Update handles input events, returns (modal, cmd, submitted, changed).
// changed is set when the typed text changed.
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool, bool) {
	if !m.visible {
		return m, nil, false, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return m, nil, true, false
		case "esc":
			m.Hide()
			return m, nil, false, false
		case "down", "ctrl+n":
			if len(m.suggestions) > 0 {
				m.cursor = min(m.cursor+1, len(m.suggestions)-1)
			}
			return m, nil, false, false
		case "up", "ctrl+p":
			if m.cursor >= 0 {
				m.cursor--
			}
			return m, nil, false, false
		case "tab":
			if len(m.suggestions) > 0 {
				pick := m.suggestions[max(m.cursor, 0)]
				m.input.SetValue(pick)
				m.input.CursorEnd()
				m.refreshSuggestions()
				return m, nil, false, true
			}
			return m, nil, false, false
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	changed := m.input.Value() != before
	if changed {
		m.refreshSuggestions()
	}
	return m, cmd, false, changed
}

// View renders the input modal
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	const modalWidth = 44

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.White).
		Bold(true).
		Width(modalWidth).
		Background(styles.SlateDark)

	inputStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Background(styles.SlateDark)

	spacer := lipgloss.NewStyle().
		Width(modalWidth).
		Background(styles.SlateDark).
		Render("")

	parts := []string{
		titleStyle.Render(m.title),
		spacer,
		inputStyle.Render(m.input.View()),
	}

	if len(m.suggestions) > 0 {
		parts = append(parts, spacer)
		var lines []string
		for i, s := range m.suggestions {
			text := styles.Pad("  "+s, modalWidth)
			if i == m.cursor {
				lines = append(lines, lipgloss.NewStyle().
					Foreground(styles.White).
					Background(styles.SlateLight).
					Render(text))
			} else {
				lines = append(lines, styles.DimStyle.Render(text))
			}
		}
		parts = append(parts, strings.Join(lines, "\n"))
		parts = append(parts, styles.DimStyle.Render("tab complete · ↑/↓ choose"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Accent).
		Background(styles.SlateDark).
		Padding(1, 2).
		Render(content)

	return modal
}
