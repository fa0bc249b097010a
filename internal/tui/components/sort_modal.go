package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/tui/styles"
)

// DefaultOrder returns the default sort order for a field
func DefaultOrder(field domain.SortField) domain.SortOrder {
	if field == domain.SortCreatedAt {
		return domain.OrderDesc // newest first
	}
	return domain.OrderAsc // A-Z
}

// SortSelection represents the user's sort choice
type SortSelection struct {
	Field domain.SortField
	Order domain.SortOrder
}

// SortModal is a small popup for choosing sort order
type SortModal struct {
	visible     bool
	options     []domain.SortField
	cursor      int
	activeField domain.SortField
	activeOrder domain.SortOrder
}

// NewSortModal creates a new sort modal
func NewSortModal() SortModal {
	return SortModal{options: domain.SortFields}
}

// Show displays the modal with the current sort state. An empty field
// means the server's default ordering.
func (m *SortModal) Show(activeField domain.SortField, activeOrder domain.SortOrder) {
	m.visible = true
	m.activeField = activeField
	m.activeOrder = activeOrder
	// Position cursor on the active field
	m.cursor = 0
	for i, opt := range m.options {
		if opt == activeField {
			m.cursor = i
			break
		}
	}
}

// Hide dismisses the modal
func (m *SortModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m SortModal) IsVisible() bool {
	return m.visible
}

// HandleKey processes a key press, returns (handled, selection).
// If selection is non-nil, the user confirmed a choice.
func (m *SortModal) HandleKey(key string) (handled bool, selection *SortSelection) {
	if !m.visible {
		return false, nil
	}

	switch key {
	case "j", "down":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
		return true, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return true, nil
	case "enter":
		chosen := m.options[m.cursor]
		order := DefaultOrder(chosen)
		if chosen == m.activeField {
			order = m.activeOrder.Toggle()
		}
		m.visible = false
		return true, &SortSelection{Field: chosen, Order: order}
	case "esc", "s":
		m.visible = false
		return true, nil
	}

	return true, nil // consume all keys when visible
}

// View renders the sort modal
func (m SortModal) View() string {
	if !m.visible || len(m.options) == 0 {
		return ""
	}

	var lines []string
	for i, opt := range m.options {
		selected := i == m.cursor
		isActive := opt == m.activeField

		prefix := "  "
		if isActive {
			prefix = "✓ "
		}

		var suffix string
		if isActive {
			if m.activeOrder == domain.OrderDesc {
				suffix = " ↓"
			} else {
				suffix = " ↑"
			}
		}

		text := styles.Pad(prefix+opt.Label()+suffix, 20)

		switch {
		case selected:
			lines = append(lines, lipgloss.NewStyle().
				Foreground(styles.White).
				Background(styles.SlateLight).
				Render(text))
		case isActive:
			lines = append(lines, lipgloss.NewStyle().
				Foreground(styles.Accent).
				Render(text))
		default:
			lines = append(lines, lipgloss.NewStyle().
				Foreground(styles.LightGray).
				Render(text))
		}
	}

	content := strings.Join(lines, "\n")

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Accent).
		Background(styles.SlateDark).
		Padding(0, 1).
		Render(styles.ModalTitleStyle.Render("Sort by") + "\n" + content)

	return modal
}
