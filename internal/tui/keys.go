package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Home     key.Binding
	End      key.Binding
	NextPage key.Binding
	PrevPage key.Binding

	// View
	Search       key.Binding
	Artist       key.Binding
	Genre        key.Binding
	QuickFilter  key.Binding
	Sort         key.Binding
	ToggleOrder  key.Binding
	ClearFilters key.Binding
	PageSize     key.Binding
	Refresh      key.Binding
	CopyView     key.Binding

	// Selection and playback
	Select    key.Binding
	SelectAll key.Binding
	Play      key.Binding

	// Mutations
	Create     key.Binding
	Edit       key.Binding
	Delete     key.Binding
	BulkDelete key.Binding
	Upload     key.Binding
	RemoveFile key.Binding

	// Other
	Quit   key.Binding
	Help   key.Binding
	Escape key.Binding

	// Confirmations
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "first row"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last row"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "pgdown", "right", "l"),
			key.WithHelp("n/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "pgup", "left", "h"),
			key.WithHelp("p/←", "previous page"),
		),

		// View
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Artist: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "filter artist"),
		),
		Genre: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "filter genre"),
		),
		QuickFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter this page"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		ToggleOrder: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle order"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filters"),
		),
		PageSize: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "page size"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		CopyView: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy view link"),
		),

		// Selection and playback
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "select page"),
		),
		Play: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play/pause"),
		),

		// Mutations
		Create: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "create"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		BulkDelete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete selected"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload audio"),
		),
		RemoveFile: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "remove audio"),
		),

		// Other
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),

		// Confirmations
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Search, k.NextPage, k.PrevPage, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End, k.NextPage, k.PrevPage},
		{k.Search, k.Artist, k.Genre, k.QuickFilter, k.Sort, k.ToggleOrder, k.ClearFilters, k.PageSize},
		{k.Select, k.SelectAll, k.Play, k.Refresh, k.CopyView},
		{k.Create, k.Edit, k.Delete, k.BulkDelete, k.Upload, k.RemoveFile},
		{k.Help, k.Escape, k.Quit},
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
