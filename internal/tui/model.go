package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tinytelemetry/flowdeck/internal/dispatch"
	"github.com/tinytelemetry/flowdeck/internal/filter"
	"github.com/tinytelemetry/flowdeck/internal/model"
	"github.com/tinytelemetry/flowdeck/internal/poller"
	"github.com/tinytelemetry/flowdeck/internal/selection"
)

// Poller is the part of the fetch coordinator the dashboard drives.
type Poller interface {
	Start(interval time.Duration)
	RefreshNow()
	SetEnabled(enabled bool)
	Enabled() bool
	SetInterval(d time.Duration)
	Interval() time.Duration
	State() model.FetchState
	Stop()
}

// Generator is the part of the action dispatcher the dashboard drives.
type Generator interface {
	Generate(ctx context.Context, kind model.ArtifactKind, ids []model.FlowID) (model.Notification, error)
	Busy() bool
	Notification() model.Notification
	Dismiss()
	Close()
}

// Deps wires the dashboard to the engine.
type Deps struct {
	Store      model.SnapshotReader
	Poller     Poller
	Dispatcher Generator
	Selection  *selection.Manager

	// PollInterval is the cadence the poller is started with.
	PollInterval time.Duration
	// BaseURL is shown in the header.
	BaseURL            string
	ReverseScrollWheel bool
}

// FilterState holds the search input and the method/status filters.
type FilterState struct {
	searchInput   textinput.Model
	searchActive  bool
	searchHandler ModalHandler
	criteria      filter.Criteria
}

// ModalStackState holds the modal stack. The topmost modal gets all input.
type ModalStackState struct {
	modalStack []Modal
}

// TableState holds the visible rows and the cursor over them.
type TableState struct {
	flows   []model.Flow // latest snapshot
	visible []model.Flow // flows after filtering, store order
	methods []string
	counts  filter.BucketCounts
	cursor  int
	offset  int
}

// DashboardModel represents the main TUI model.
type DashboardModel struct {
	FilterState
	ModalStackState
	TableState

	width  int
	height int

	store      model.SnapshotReader
	poller     Poller
	dispatcher Generator
	selection  *selection.Manager

	baseURL            string
	reverseScrollWheel bool

	keys KeyMap

	pollInterval       time.Duration
	availableIntervals []time.Duration
	currentIntervalIdx int

	fetch model.FetchState
	// pollFailures counts consecutive failed fetches for the status line.
	pollFailures int

	generating   bool
	notification model.Notification
	// statusMsg is a transient hint in the status line (cleared on next key).
	statusMsg string
	lastSaved string

	now func() time.Time
}

// TickMsg repaints relative times ("updated 3s ago").
type TickMsg time.Time

// FetchMsg is posted by the coordinator after every fetch state change.
type FetchMsg struct {
	Event poller.Event
}

// DispatchMsg is posted by the dispatcher after every state change.
type DispatchMsg struct {
	Event dispatch.Event
}

type generateDoneMsg struct {
	kind model.ArtifactKind
	note model.Notification
	err  error
}

// Send delivers a message to the running program.
type Send func(tea.Msg)

// NewDashboardModel creates a dashboard over deps.
func NewDashboardModel(deps Deps) *DashboardModel {
	search := textinput.New()
	search.Placeholder = "url contains..."
	search.Prompt = "/ "
	search.CharLimit = 256

	sel := deps.Selection
	if sel == nil {
		sel = selection.NewManager()
	}

	m := &DashboardModel{
		FilterState: FilterState{
			searchInput:   search,
			searchHandler: searchInputHandler{},
			criteria:      filter.DefaultCriteria(),
		},
		store:              deps.Store,
		poller:             deps.Poller,
		dispatcher:         deps.Dispatcher,
		selection:          sel,
		baseURL:            deps.BaseURL,
		reverseScrollWheel: deps.ReverseScrollWheel,
		keys:               DefaultKeyMap(),
		availableIntervals: []time.Duration{
			time.Second,
			2 * time.Second,
			5 * time.Second,
			10 * time.Second,
			30 * time.Second,
			time.Minute,
		},
		now: time.Now,
	}
	m.pollInterval = deps.PollInterval
	if m.pollInterval <= 0 {
		m.pollInterval = model.DefaultPollInterval
	}
	m.currentIntervalIdx = m.intervalIndex(m.pollInterval)
	if deps.Poller != nil {
		m.fetch = deps.Poller.State()
	}
	m.reload()
	return m
}

// Attach routes coordinator and dispatcher callbacks into the program.
// Callbacks also fire from inside Update (a refresh key press emits
// synchronously), so each message is sent from its own goroutine; the
// program's Send blocks until the event loop reads it.
func Attach(send Send, coord interface{ OnChange(func(poller.Event)) }, disp interface{ OnChange(func(dispatch.Event)) }) {
	if coord != nil {
		coord.OnChange(func(ev poller.Event) { go send(FetchMsg{Event: ev}) })
	}
	if disp != nil {
		disp.OnChange(func(ev dispatch.Event) { go send(DispatchMsg{Event: ev}) })
	}
}

func (m *DashboardModel) intervalIndex(d time.Duration) int {
	best := 0
	for i, iv := range m.availableIntervals {
		if absDuration(iv-d) < absDuration(m.availableIntervals[best]-d) {
			best = i
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// reload pulls the latest snapshot and recomputes the visible rows.
func (m *DashboardModel) reload() {
	if m.store != nil {
		m.flows = m.store.Current()
	}
	m.methods = filter.Methods(m.flows)
	m.counts = filter.CountBuckets(m.flows)
	m.applyFilters()
}

// applyFilters recomputes the visible rows, keeping the cursor on the same
// flow when it is still visible.
func (m *DashboardModel) applyFilters() {
	var cursorID model.FlowID
	if m.cursor >= 0 && m.cursor < len(m.visible) {
		cursorID = m.visible[m.cursor].ID
	}

	m.visible = filter.Visible(m.flows, m.criteria)

	m.cursor = 0
	if cursorID != "" {
		for i, f := range m.visible {
			if f.ID == cursorID {
				m.cursor = i
				break
			}
		}
	}
	m.clampCursor()
}

func (m *DashboardModel) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	rows := m.tableRows()
	if rows <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if maxOffset := max(0, len(m.visible)-rows); m.offset > maxOffset {
		m.offset = maxOffset
	}
}

// visibleIDs returns the ids of the rows currently shown.
func (m *DashboardModel) visibleIDs() []model.FlowID {
	return filter.IDs(m.visible)
}

// Visible returns the rows currently shown.
func (m *DashboardModel) Visible() []model.Flow {
	return m.visible
}

// Criteria returns the active filter criteria.
func (m *DashboardModel) Criteria() filter.Criteria {
	return m.criteria
}

// Notification returns the banner currently shown.
func (m *DashboardModel) Notification() model.Notification {
	return m.notification
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Init starts polling and the repaint ticker. Polling starts from a command
// so its first events are sent once the event loop is running.
func (m *DashboardModel) Init() tea.Cmd {
	if m.poller == nil {
		return tickCmd()
	}
	p, interval := m.poller, m.pollInterval
	return tea.Batch(tickCmd(), func() tea.Msg {
		p.Start(interval)
		return nil
	})
}
