package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/trackctl/internal/params"
	"github.com/mmcdole/trackctl/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateCrashed:
		return m.renderCrash()
	case StateHelp:
		return m.renderHelp()
	}

	view := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.Table.View(m.isSelected, m.isPlaying),
	)
	// Pin the footer to the bottom line
	if gap := m.Height - 1 - lipgloss.Height(view); gap > 0 {
		view += strings.Repeat("\n", gap)
	}
	view = lipgloss.JoinVertical(lipgloss.Left, view, m.renderFooter())

	// Overlays
	var overlay string
	switch {
	case m.State == StateConfirm && m.confirm != nil:
		overlay = m.renderConfirm()
	case m.Form.IsVisible():
		overlay = m.Form.View()
	case m.SortModal.IsVisible():
		overlay = m.SortModal.View()
	case m.InputModal.IsVisible():
		overlay = m.InputModal.View()
	}
	if overlay != "" {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			overlay)
	}

	return view
}

// renderHeader renders the title line with active filters and selection
func (m Model) renderHeader() string {
	p := m.LibrarySvc.View().Params()

	left := styles.TitleStyle.Render("trackctl")
	if desc := params.Describe(p); desc != "" {
		left += "  " + styles.AccentStyle.Render(desc)
	}
	if f := m.Table.Filter(); f != "" {
		left += "  " + styles.DimStyle.Render(fmt.Sprintf("page filter %q", f))
	}

	var right string
	if n := m.LibrarySvc.Session().Selection.Len(); n > 0 {
		right = styles.AccentStyle.Render(fmt.Sprintf("%d selected", n))
	}

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return styles.Truncate(left+strings.Repeat(" ", gap)+right, m.Width)
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	// Left side: spinner + status when loading or status message active
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.SuccessStyle.Render(m.StatusMsg)
	case m.LibrarySvc.Busy():
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Saving...")
	case m.Loading:
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Loading...")
	case m.Current.Stale:
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Refreshing...")
	}

	// Center: page position and the shareable view query
	meta := m.Current.Page.Meta
	var center string
	if meta.TotalPages > 0 {
		center = fmt.Sprintf("page %d/%d · %d tracks", meta.Page, meta.TotalPages, meta.Total)
	} else if !m.Loading {
		center = "0 tracks"
	}
	if q := m.LibrarySvc.View().Query(); q != "" && center != "" {
		center += " · ?" + q
	}
	center = styles.DimStyle.Render(center)

	// Right side: "? help" hint
	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	body := m.Help.FullHelpView(Keys.FullHelp())
	hint := styles.DimStyle.Render("Press any key to return...")
	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(styles.ModalTitleStyle.Render("Keys")+"\n\n"+body+"\n\n"+hint))
}

// renderConfirm renders the pending destructive action
func (m Model) renderConfirm() string {
	return styles.ModalStyle.Render(
		styles.ModalTitleStyle.Render(m.confirm.Prompt) + "\n\n" +
			styles.AccentStyle.Render("[Y]") + " Yes      " +
			styles.AccentStyle.Render("[N]") + " No",
	)
}

// renderCrash renders the fallback screen shown after a panic
func (m Model) renderCrash() string {
	body := styles.ErrorStyle.Render("Something went wrong") + "\n\n" +
		styles.DimStyle.Render(styles.Truncate(m.crash, 60)) + "\n\n" +
		styles.AccentStyle.Render("r") + " reload   " +
		styles.AccentStyle.Render("q") + " quit"
	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(body))
}
