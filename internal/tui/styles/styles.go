package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Color palette
var (
	Accent     = lipgloss.Color("#E5A00D")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
)

// Themes maps theme names to their accent color.
var Themes = map[string]lipgloss.Color{
	"default": lipgloss.Color("#E5A00D"),
	"ocean":   lipgloss.Color("#3B82F6"),
	"forest":  lipgloss.Color("#10B981"),
	"mono":    lipgloss.Color("#F9FAFB"),
}

// Text styles
var (
	TitleStyle   lipgloss.Style
	DimStyle     lipgloss.Style
	AccentStyle  lipgloss.Style
	ErrorStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
)

// Table styles
var (
	HeaderStyle         lipgloss.Style
	MatchHighlightStyle lipgloss.Style
)

// Modal styles
var (
	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
)

// Help styles
var (
	HelpKeyStyle  lipgloss.Style
	HelpDescStyle lipgloss.Style
)

// Spinner style
var SpinnerStyle lipgloss.Style

func init() {
	build()
}

// SetTheme switches the accent color. Unknown names keep the default
// theme. It reports whether name was known.
func SetTheme(name string) bool {
	c, ok := Themes[strings.ToLower(name)]
	if !ok {
		c = Themes["default"]
	}
	Accent = c
	build()
	return ok
}

func build() {
	TitleStyle = lipgloss.NewStyle().
		Foreground(White).
		Bold(true)

	DimStyle = lipgloss.NewStyle().
		Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
		Foreground(Accent)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(Green)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Bold(true)

	MatchHighlightStyle = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 2).
		Background(SlateDark)

	ModalTitleStyle = lipgloss.NewStyle().
		Foreground(White).
		Bold(true).
		MarginBottom(1)

	HelpKeyStyle = lipgloss.NewStyle().
		Foreground(Accent)

	HelpDescStyle = lipgloss.NewStyle().
		Foreground(DimGray)

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(Accent)
}

// Helper functions

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Pad pads or truncates a string to exactly the given display width
func Pad(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// Highlight renders s truncated to width, with the runes at indexes in
// the match style.
func Highlight(s string, indexes []int, width int, base lipgloss.Style) string {
	text := Pad(s, width)
	if len(indexes) == 0 {
		return base.Render(text)
	}
	visible := len([]rune(Truncate(s, width)))
	var keep []int
	for _, i := range indexes {
		if i < visible {
			keep = append(keep, i)
		}
	}
	return lipgloss.StyleRunes(text, keep, MatchHighlightStyle.Inherit(base), base)
}

// RenderListRow renders a complete list row with uniform background when selected.
// This function styles each part explicitly to avoid ANSI reset code issues.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := SlateLight
	defaultFg := LightGray
	selectedFg := White

	var result string
	visibleLen := 0

	for _, part := range parts {
		style := lipgloss.NewStyle()
		if part.Foreground != nil {
			style = style.Foreground(*part.Foreground)
		} else if selected {
			style = style.Foreground(selectedFg)
		} else {
			style = style.Foreground(defaultFg)
		}
		if selected {
			style = style.Background(bg)
		}
		if part.Bold {
			style = style.Bold(true)
		}
		if part.Raw {
			result += part.Text
		} else {
			result += style.Render(part.Text)
		}
		visibleLen += lipgloss.Width(part.Text)
	}

	// Add padding to fill width (subtract 2 for left/right margin)
	paddingNeeded := width - visibleLen - 2
	if paddingNeeded > 0 {
		padStyle := lipgloss.NewStyle()
		if selected {
			padStyle = padStyle.Background(bg)
		}
		result += padStyle.Render(strings.Repeat(" ", paddingNeeded))
	}

	// Add margins
	marginStyle := lipgloss.NewStyle()
	if selected {
		marginStyle = marginStyle.Background(bg)
	}
	margin := marginStyle.Render(" ")

	return margin + result + margin
}

// RowPart represents a part of a row with optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
	Bold       bool
	// Raw parts are already styled and rendered as is.
	Raw bool
}

// RowBackground returns the base style for a row cell.
func RowBackground(selected bool) lipgloss.Style {
	if selected {
		return lipgloss.NewStyle().Foreground(White).Background(SlateLight)
	}
	return lipgloss.NewStyle().Foreground(LightGray)
}
