package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/library"
	"github.com/mmcdole/trackctl/internal/params"
	"github.com/mmcdole/trackctl/internal/prefs"
	"github.com/mmcdole/trackctl/internal/query"
	"github.com/mmcdole/trackctl/internal/search"
	"github.com/mmcdole/trackctl/internal/service"
	"github.com/mmcdole/trackctl/internal/tui/components"
	"github.com/mmcdole/trackctl/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
	StateConfirm
	StateCrashed
)

// filterField identifies what a text prompt edits
type filterField int

const (
	fieldNone filterField = iota
	fieldSearch
	fieldArtist
	fieldGenre
	fieldQuickFilter
	fieldUploadPath
)

// Vertical chrome: header line + footer line
const ChromeHeight = 2

const statusDuration = 4 * time.Second

// confirmAction is a pending destructive action awaiting y/n
type confirmAction struct {
	Prompt string
	Run    tea.Cmd
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	// Services
	LibrarySvc  *library.Service
	PlaybackSvc *service.PlaybackService
	Prefs       prefs.Prefs
	logger      *slog.Logger

	// UI Components
	Table      components.TrackTable
	Form       components.TrackForm
	SortModal  components.SortModal
	InputModal components.InputModal
	Spinner    spinner.Model
	Help       help.Model

	// Data
	Current library.View
	Genres  []string

	// Background event sources
	updates  chan query.Update
	playing  chan string
	debounce *params.Debouncer[DebouncedMsg]

	// Prompt state
	prompt       filterField
	promptTarget domain.Track
	confirm      *confirmAction

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	statusSeq   int
	Loading     bool
	crash       string
}

// NewModel creates a new application model and subscribes it to cache
// and playback changes
func NewModel(
	librarySvc *library.Service,
	playbackSvc *service.PlaybackService,
	p prefs.Prefs,
	debounce time.Duration,
	logger *slog.Logger,
) Model {
	if logger == nil {
		logger = slog.Default()
	}
	styles.SetTheme(p.Theme)

	updates := make(chan query.Update, 64)
	librarySvc.Subscribe(NewChannelObserver(updates))

	playing := make(chan string, 8)
	librarySvc.Session().Playback.OnChange(func(_, next string) {
		select {
		case playing <- next:
		default:
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	h := help.New()
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpDescStyle
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle

	return Model{
		State:       StateBrowsing,
		LibrarySvc:  librarySvc,
		PlaybackSvc: playbackSvc,
		Prefs:       p,
		logger:      logger,
		Table:       components.NewTrackTable(),
		Form:        components.NewTrackForm(),
		SortModal:   components.NewSortModal(),
		InputModal:  components.NewInputModal(),
		Spinner:     sp,
		Help:        h,
		updates:     updates,
		playing:     playing,
		debounce:    params.NewDebouncer[DebouncedMsg](debounce),
		Loading:     true,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadViewCmd(m.LibrarySvc),
		LoadGenresCmd(m.LibrarySvc),
		WaitForUpdateCmd(m.updates),
		WaitForPlaybackCmd(m.playing),
		WaitForDebounceCmd(m.debounce),
		m.Spinner.Tick,
	)
}

// Close releases background resources
func (m Model) Close() {
	m.debounce.Close()
}

// Update handles all messages. A panic while handling a message switches
// to the fallback screen instead of tearing down the terminal.
func (m Model) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic in update", "panic", r, "stack", string(debug.Stack()))
			m.State = StateCrashed
			m.crash = fmt.Sprint(r)
			model, cmd = m, nil
		}
	}()
	return m.update(msg)
}

func (m Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.Table.SetSize(m.Width, m.Height-ChromeHeight)
		m.Help.Width = m.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case ViewLoadedMsg:
		m.Loading = false
		return m, m.applyView(msg.View)

	case GenresLoadedMsg:
		m.Genres = msg.Genres
		return m, nil

	case CacheUpdatedMsg:
		return m, tea.Batch(WaitForUpdateCmd(m.updates), m.handleCacheUpdate(msg.Update))

	case PlaybackChangedMsg:
		// Re-render only; the table reads playback state directly.
		return m, WaitForPlaybackCmd(m.playing)

	case PlaybackToggledMsg:
		if msg.Playing {
			return m, m.setStatus("Playing "+msg.Track.Title, false)
		}
		return m, m.setStatus("Paused "+msg.Track.Title, false)

	case DebouncedMsg:
		return m, tea.Batch(WaitForDebounceCmd(m.debounce), m.applyFilter(msg.Field, msg.Value))

	case MutationDoneMsg:
		if msg.Err != nil {
			return m, m.showError(msg.Err)
		}
		if m.Form.IsVisible() {
			m.Form.Hide()
		}
		return m, m.setStatus(msg.Toast, len(msg.Failed) > 0)

	case ErrMsg:
		m.Loading = false
		m.logger.Error("operation failed", "error", msg.Err, "context", msg.Context)
		return m, m.showError(msg.Err)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}

	return m, nil
}

// applyView shows a loaded page and warms the next one
func (m *Model) applyView(v library.View) tea.Cmd {
	// Deleting the last rows of the last page leaves it empty: step back.
	if len(v.Page.Data) == 0 && v.Params.Page > 1 && v.Page.Meta.Total > 0 {
		if m.LibrarySvc.View().PrevPage() {
			m.Loading = true
			return LoadViewCmd(m.LibrarySvc)
		}
	}

	m.Current = v
	if m.Table.Filter() != "" {
		m.Table.SetFilter(m.Table.Filter(), v.Page.Data)
	} else {
		m.Table.SetTracks(v.Page.Data)
	}
	if v.Page.HasNext() {
		return PrefetchNextCmd(m.LibrarySvc, v)
	}
	return nil
}

// handleCacheUpdate re-renders from cache when the current page changed
// and reloads it when it was invalidated or dropped
func (m *Model) handleCacheUpdate(u query.Update) tea.Cmd {
	switch u.Cache {
	case "pages":
		if u.Key != params.Key(m.LibrarySvc.View().Params()) {
			return nil
		}
		v, ok := m.LibrarySvc.CurrentView()
		var cmd tea.Cmd
		if ok {
			cmd = m.applyView(v)
		}
		if v.Status == query.StatusIdle || (ok && v.Stale && v.Status == query.StatusSuccess) {
			return tea.Batch(cmd, LoadViewCmd(m.LibrarySvc))
		}
		return cmd
	case "genres":
		if genres, ok := m.LibrarySvc.CachedGenres(); ok {
			m.Genres = genres
		}
	}
	return nil
}

// applyFilter writes a settled prompt value into the view state
func (m *Model) applyFilter(field filterField, value string) tea.Cmd {
	view := m.LibrarySvc.View()
	var changed bool
	switch field {
	case fieldSearch:
		changed = view.SetSearch(value)
	case fieldArtist:
		changed = view.SetArtist(value)
	case fieldGenre:
		changed = view.SetGenre(value)
	case fieldQuickFilter:
		m.Table.SetFilter(value, m.Current.Page.Data)
		return nil
	}
	if !changed {
		return nil
	}
	return m.reload()
}

// reload fetches the current view, serving cache hits without a spinner
func (m *Model) reload() tea.Cmd {
	if v, ok := m.LibrarySvc.CurrentView(); ok && !v.Stale {
		m.applyView(v)
		return nil
	}
	m.Loading = true
	return LoadViewCmd(m.LibrarySvc)
}

// setStatus shows a toast that clears itself
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return ClearStatusCmd(m.statusSeq, statusDuration)
}

// showError renders err for the user. Validation details go to the open
// form when there is one.
func (m *Model) showError(err error) tea.Cmd {
	var verr *domain.ValidationError
	if m.Form.IsVisible() && errors.As(err, &verr) && len(verr.Details) > 0 {
		m.Form.SetErrors(verr.Details)
		return nil
	}
	return m.setStatus(domain.UserMessage(err), true)
}

// suggestGenres ranks known genres against input
func (m Model) suggestGenres(input string) []string {
	return search.SuggestGenres(input, m.Genres)
}

// isSelected reports whether id is in the selection
func (m Model) isSelected(id string) bool {
	return m.LibrarySvc.Session().Selection.Has(id)
}

// isPlaying reports whether id is the playing track
func (m Model) isPlaying(id string) bool {
	return m.LibrarySvc.Session().Playback.IsPlaying(id)
}

// recoverFromCrash leaves the fallback screen and reloads
func (m Model) recoverFromCrash() (tea.Model, tea.Cmd) {
	m.State = StateBrowsing
	m.crash = ""
	m.Form.Hide()
	m.InputModal.Hide()
	m.SortModal.Hide()
	m.confirm = nil
	m.Loading = true
	return m, RefreshCmd(m.LibrarySvc)
}
