package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tinytelemetry/flowdeck/internal/dispatch"
	"github.com/tinytelemetry/flowdeck/internal/filter"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

// Update handles messages
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouseEvent(msg)

	case TickMsg:
		// Nothing to fetch here; the tick only repaints relative times.
		return m, tickCmd()

	case FetchMsg:
		m.applyFetch(msg)
		return m, nil

	case DispatchMsg:
		m.applyDispatch(msg.Event)
		return m, nil

	case generateDoneMsg:
		m.generating = false
		switch {
		case errors.Is(msg.err, dispatch.ErrBusy):
			m.statusMsg = "Generation already in progress"
		case errors.Is(msg.err, dispatch.ErrEmptySelection):
			m.statusMsg = "Select at least one flow first"
		case msg.err != nil:
			m.statusMsg = msg.err.Error()
		default:
			m.notification = msg.note
		}
		return m, nil
	}

	return m, nil
}

// applyFetch reads coordinator state when a fetch event arrives. Events may
// be delivered out of order, so the coordinator's current state wins over
// the event payload.
func (m *DashboardModel) applyFetch(msg FetchMsg) {
	ev := msg.Event
	if m.poller != nil {
		m.fetch = m.poller.State()
	} else {
		m.fetch = ev.State
	}
	switch {
	case ev.Updated:
		m.pollFailures = 0
		if ev.Changed {
			m.reload()
		}
	case ev.State.LastError != nil && !ev.State.InFlight:
		m.pollFailures++
	}
}

func (m *DashboardModel) applyDispatch(ev dispatch.Event) {
	if m.dispatcher != nil {
		m.generating = m.dispatcher.Busy()
		m.notification = m.dispatcher.Notification()
	} else {
		m.generating = ev.Busy
		m.notification = ev.Notification
	}
	switch {
	case ev.DownloadErr != nil:
		m.statusMsg = fmt.Sprintf("Download failed: %v", ev.DownloadErr)
	case ev.Saved != "":
		m.lastSaved = ev.Saved
		m.statusMsg = "Saved " + ev.Saved
	}
	m.clampCursor()
}

func (m *DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal on stack gets the key first.
	if modal := m.TopModal(); modal != nil {
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, m.quit()
		}
		pop, cmd := modal.Update(msg)
		if pop {
			m.PopModal()
		}
		return m, cmd
	}

	if m.searchActive {
		_, cmd := m.searchHandler.HandleKey(m, msg)
		return m, cmd
	}

	m.statusMsg = ""

	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Help):
		m.PushModal(NewHelpModal(m))

	case key.Matches(msg, m.keys.Escape):
		m.resetFilters()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
		m.clampCursor()
	case key.Matches(msg, m.keys.End):
		m.cursor = len(m.visible) - 1
		m.clampCursor()
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-max(1, m.tableRows()))
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(max(1, m.tableRows()))

	case key.Matches(msg, m.keys.Toggle):
		if f, ok := m.cursorFlow(); ok {
			if m.selection.Toggle(f.ID) {
				m.statusMsg = "Selected " + rowLabel(f)
			} else {
				m.statusMsg = "Unselected " + rowLabel(f)
			}
		}
	case key.Matches(msg, m.keys.AllVisible):
		m.selection.SetAllVisible(m.visibleIDs())
	case key.Matches(msg, m.keys.Clear):
		m.selection.Clear()

	case key.Matches(msg, m.keys.Search):
		m.searchActive = true
		m.searchInput.SetValue(m.criteria.Search)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keys.MethodNext):
		m.setMethod(filter.NextMethod(m.methods, m.criteria.Method, 1))
	case key.Matches(msg, m.keys.MethodPrev):
		m.setMethod(filter.NextMethod(m.methods, m.criteria.Method, -1))
	case key.Matches(msg, m.keys.StatusNext):
		m.setStatus(filter.NextStatusFilter(m.criteria.Status, 1))
	case key.Matches(msg, m.keys.StatusPrev):
		m.setStatus(filter.NextStatusFilter(m.criteria.Status, -1))
	case key.Matches(msg, m.keys.ResetAll):
		m.resetFilters()

	case key.Matches(msg, m.keys.Refresh):
		if m.poller != nil {
			m.poller.RefreshNow()
			m.fetch = m.poller.State()
		}
	case key.Matches(msg, m.keys.AutoRefresh):
		if m.poller != nil {
			m.poller.SetEnabled(!m.poller.Enabled())
			m.fetch = m.poller.State()
		}
	case key.Matches(msg, m.keys.IntervalUp):
		m.stepInterval(-1)
	case key.Matches(msg, m.keys.IntervalDown):
		m.stepInterval(1)

	case key.Matches(msg, m.keys.OpenAPI):
		return m, m.generate(model.ArtifactOpenAPI)
	case key.Matches(msg, m.keys.Postman):
		return m, m.generate(model.ArtifactPostman)
	case key.Matches(msg, m.keys.Dismiss):
		m.notification = model.Notification{}
		if m.dispatcher != nil {
			m.dispatcher.Dismiss()
		}
		m.clampCursor()
	}

	return m, nil
}

// quit tears down background work before leaving the program.
func (m *DashboardModel) quit() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
	}
	if m.dispatcher != nil {
		m.dispatcher.Close()
	}
	return tea.Quit
}

func (m *DashboardModel) generate(kind model.ArtifactKind) tea.Cmd {
	if m.dispatcher == nil {
		return nil
	}
	ids := m.selection.IDs()
	if len(ids) == 0 {
		m.statusMsg = "Select at least one flow first"
		return nil
	}
	if m.generating || m.dispatcher.Busy() {
		m.statusMsg = "Generation already in progress"
		return nil
	}
	m.generating = true
	m.statusMsg = fmt.Sprintf("Generating %s from %d flows...", kind.Label(), len(ids))

	d := m.dispatcher
	return func() tea.Msg {
		note, err := d.Generate(context.Background(), kind, ids)
		return generateDoneMsg{kind: kind, note: note, err: err}
	}
}

func (m *DashboardModel) stepInterval(step int) {
	if m.poller == nil {
		return
	}
	idx := m.currentIntervalIdx + step
	if idx < 0 || idx >= len(m.availableIntervals) {
		return
	}
	m.currentIntervalIdx = idx
	m.poller.SetInterval(m.availableIntervals[idx])
}

func (m *DashboardModel) setMethod(method string) {
	m.criteria.Method = method
	m.applyFilters()
}

func (m *DashboardModel) setStatus(status filter.StatusFilter) {
	m.criteria.Status = status
	m.applyFilters()
}

func (m *DashboardModel) setSearch(term string) {
	m.criteria.Search = term
	m.applyFilters()
}

func (m *DashboardModel) resetFilters() {
	m.criteria = filter.DefaultCriteria()
	m.searchInput.SetValue("")
	m.applyFilters()
}

func (m *DashboardModel) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *DashboardModel) cursorFlow() (model.Flow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return model.Flow{}, false
	}
	return m.visible[m.cursor], true
}

// handleMouseEvent processes mouse interactions
func (m *DashboardModel) handleMouseEvent(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if modal := m.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			m.PopModal()
		}
		return m, cmd
	}
	if m.searchActive {
		_, cmd := m.searchHandler.HandleMouse(m, msg)
		return m, cmd
	}

	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.reverseScrollWheel {
			m.moveCursor(1)
		} else {
			m.moveCursor(-1)
		}
	case tea.MouseButtonWheelDown:
		if m.reverseScrollWheel {
			m.moveCursor(-1)
		} else {
			m.moveCursor(1)
		}
	case tea.MouseButtonLeft:
		if idx, ok := m.rowAt(msg.Y); ok {
			if idx == m.cursor {
				m.selection.Toggle(m.visible[idx].ID)
			}
			m.cursor = idx
			m.clampCursor()
		}
	}
	return m, nil
}
