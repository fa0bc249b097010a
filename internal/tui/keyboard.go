package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/trackctl/internal/domain"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateCrashed:
		switch {
		case key.Matches(msg, Keys.Refresh):
			return m.recoverFromCrash()
		case key.Matches(msg, Keys.Quit):
			return m, tea.Quit
		}
		return m, nil

	case StateHelp:
		// Any key closes help
		m.State = StateBrowsing
		return m, nil

	case StateConfirm:
		switch {
		case key.Matches(msg, Keys.Confirm):
			run := m.confirm.Run
			m.confirm = nil
			m.State = StateBrowsing
			return m, run
		case key.Matches(msg, Keys.Deny):
			m.confirm = nil
			m.State = StateBrowsing
		}
		return m, nil
	}

	// Route to active modal if any
	if handled, newModel, cmd := m.routeToModal(msg); handled {
		return newModel, cmd
	}

	view := m.LibrarySvc.View()

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		// Clear the local page filter if any
		if m.Table.Filter() != "" {
			m.Table.SetFilter("", m.Current.Page.Data)
		}
		return m, nil

	case key.Matches(msg, Keys.Up):
		m.Table.MoveUp()
	case key.Matches(msg, Keys.Down):
		m.Table.MoveDown()
	case key.Matches(msg, Keys.Home):
		m.Table.Top()
	case key.Matches(msg, Keys.End):
		m.Table.Bottom()

	case key.Matches(msg, Keys.NextPage):
		if view.NextPage(m.Current.Page.Meta.TotalPages) {
			return m, m.reload()
		}
	case key.Matches(msg, Keys.PrevPage):
		if view.PrevPage() {
			return m, m.reload()
		}

	case key.Matches(msg, Keys.Search):
		m.openPrompt(fieldSearch, "Search titles", "type to search", view.Params().Search)
	case key.Matches(msg, Keys.Artist):
		m.openPrompt(fieldArtist, "Filter by artist", "artist name", view.Params().Artist)
	case key.Matches(msg, Keys.Genre):
		m.prompt = fieldGenre
		m.InputModal.ShowWithSuggestions("Filter by genre", "genre", view.Params().Genre, m.suggestGenres)
		if len(m.Genres) == 0 {
			return m, LoadGenresCmd(m.LibrarySvc)
		}
	case key.Matches(msg, Keys.QuickFilter):
		m.openPrompt(fieldQuickFilter, "Filter this page", "title, artist or album", m.Table.Filter())

	case key.Matches(msg, Keys.Sort):
		p := view.Params()
		m.SortModal.Show(p.Sort, p.Order)
	case key.Matches(msg, Keys.ToggleOrder):
		if view.ToggleOrder() {
			return m, m.reload()
		}
	case key.Matches(msg, Keys.ClearFilters):
		m.Table.SetFilter("", m.Current.Page.Data)
		if view.Clear() {
			return m, m.reload()
		}
	case key.Matches(msg, Keys.PageSize):
		if view.SetLimit(nextPageSize(view.Params().Limit)) {
			return m, m.reload()
		}
	case key.Matches(msg, Keys.Refresh):
		m.Loading = true
		return m, RefreshCmd(m.LibrarySvc)
	case key.Matches(msg, Keys.CopyView):
		return m, CopyViewCmd(view.Query())

	case key.Matches(msg, Keys.Select):
		if t, ok := m.Table.Selected(); ok {
			m.LibrarySvc.Session().Selection.Toggle(t.ID)
			m.Table.MoveDown()
		}
	case key.Matches(msg, Keys.SelectAll):
		sel := m.LibrarySvc.Session().Selection
		ids := m.Table.IDs()
		all := len(ids) > 0
		for _, id := range ids {
			if !sel.Has(id) {
				all = false
				break
			}
		}
		if all {
			sel.Deselect(ids...)
		} else {
			sel.SelectAll(ids)
		}
	case key.Matches(msg, Keys.Play):
		if t, ok := m.Table.Selected(); ok {
			return m, TogglePlayCmd(m.PlaybackSvc, t)
		}

	case key.Matches(msg, Keys.Create):
		m.Form.ShowCreate(m.suggestGenres)
	case key.Matches(msg, Keys.Edit):
		if t, ok := m.Table.Selected(); ok {
			m.Form.ShowEdit(t, m.suggestGenres)
		}
	case key.Matches(msg, Keys.Delete):
		if t, ok := m.Table.Selected(); ok {
			return m.confirmOrRun(fmt.Sprintf("Delete %q?", t.Title), DeleteTrackCmd(m.LibrarySvc, t))
		}
	case key.Matches(msg, Keys.BulkDelete):
		n := m.LibrarySvc.Session().Selection.Len()
		if n == 0 {
			return m, m.setStatus("Nothing selected", true)
		}
		return m.confirmOrRun(fmt.Sprintf("Delete %d selected tracks?", n), DeleteSelectedCmd(m.LibrarySvc))
	case key.Matches(msg, Keys.Upload):
		if t, ok := m.Table.Selected(); ok {
			m.promptTarget = t
			m.openPrompt(fieldUploadPath, "Upload audio for "+t.Title, "/path/to/file.mp3", "")
		}
	case key.Matches(msg, Keys.RemoveFile):
		if t, ok := m.Table.Selected(); ok {
			if !t.HasAudio() {
				return m, m.setStatus(domain.UserMessage(domain.ErrNoAudio), true)
			}
			return m.confirmOrRun(fmt.Sprintf("Remove audio from %q?", t.Title), RemoveFileCmd(m.LibrarySvc, t.ID))
		}
	}

	return m, nil
}

// openPrompt shows the input modal for field
func (m *Model) openPrompt(field filterField, title, placeholder, value string) {
	m.prompt = field
	m.InputModal.Show(title, placeholder, value)
}

// confirmOrRun asks before running cmd when confirmations are enabled
func (m Model) confirmOrRun(prompt string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if !m.Prefs.ConfirmDelete {
		return m, cmd
	}
	m.confirm = &confirmAction{Prompt: prompt, Run: cmd}
	m.State = StateConfirm
	return m, nil
}

// routeToModal sends keys to the visible modal, returns (handled, model, cmd)
func (m Model) routeToModal(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	switch {
	case m.Form.IsVisible():
		var cmd tea.Cmd
		var submitted bool
		m.Form, cmd, submitted = m.Form.Update(msg)
		if !submitted {
			return true, m, cmd
		}
		return true, m, m.submitForm()

	case m.SortModal.IsVisible():
		_, sel := m.SortModal.HandleKey(msg.String())
		if sel != nil && m.LibrarySvc.View().SetSort(sel.Field, sel.Order) {
			return true, m, m.reload()
		}
		return true, m, nil

	case m.InputModal.IsVisible():
		var cmd tea.Cmd
		var submitted, changed bool
		m.InputModal, cmd, submitted, changed = m.InputModal.Update(msg)

		live := m.prompt == fieldSearch || m.prompt == fieldArtist || m.prompt == fieldQuickFilter
		if changed && live {
			m.debounce.Push(DebouncedMsg{Field: m.prompt, Value: m.InputModal.Value()})
		}
		if !m.InputModal.IsVisible() {
			// Cancelled: values already applied stay, pending ones drop.
			m.debounce.Cancel()
			m.prompt = fieldNone
			return true, m, cmd
		}
		if !submitted {
			return true, m, cmd
		}

		field, value := m.prompt, strings.TrimSpace(m.InputModal.Value())
		m.InputModal.Hide()
		m.prompt = fieldNone
		m.debounce.Cancel()

		if field == fieldUploadPath {
			if value == "" {
				return true, m, nil
			}
			return true, m, UploadFileCmd(m.LibrarySvc, m.promptTarget.ID, value)
		}
		return true, m, m.applyFilter(field, value)
	}

	return false, m, nil
}

// submitForm validates and sends the create or edit form
func (m *Model) submitForm() tea.Cmd {
	if m.Form.Editing() {
		in := m.Form.UpdateInput()
		if in.IsEmpty() {
			m.Form.Hide()
			return m.setStatus("No changes", false)
		}
		return UpdateTrackCmd(m.LibrarySvc, m.Form.Original().ID, in)
	}
	return CreateTrackCmd(m.LibrarySvc, m.Form.CreateInput())
}

// pageSizes are the page sizes the page size key cycles through.
var pageSizes = []int{10, 25, 50, 100}

func nextPageSize(current int) int {
	for _, n := range pageSizes {
		if n > current {
			return n
		}
	}
	return pageSizes[0]
}
