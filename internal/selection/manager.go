package selection

import (
	"sync"

	"github.com/tinytelemetry/flowdeck/internal/model"
)

// Manager tracks which flows the operator has chosen. Membership is keyed
// by flow id, independent of filtering and of the current snapshot: ids are
// kept even when their flow drops out of a refresh.
type Manager struct {
	mu       sync.RWMutex
	set      Set
	onChange func(Set)
}

// NewManager returns an empty selection.
func NewManager() *Manager {
	return &Manager{set: NewSet()}
}

// OnChange registers a listener called with the new set after each change.
func (m *Manager) OnChange(fn func(Set)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Toggle flips membership of id and reports whether it is now selected.
func (m *Manager) Toggle(id model.FlowID) bool {
	var selected bool
	m.update(func(s Set) Set {
		if s.Has(id) {
			return s.Without(id)
		}
		selected = true
		return s.With(id)
	})
	return selected
}

// Add selects ids without removing anything already selected.
func (m *Manager) Add(ids ...model.FlowID) {
	if len(ids) == 0 {
		return
	}
	m.update(func(s Set) Set {
		return s.With(ids...)
	})
}

// Clear empties the selection.
func (m *Manager) Clear() {
	m.update(func(s Set) Set {
		if s.Len() == 0 {
			return s
		}
		return NewSet()
	})
}

// SetAllVisible is the all-or-nothing bulk toggle: when every visible id is
// already selected they are all removed, otherwise the missing ones are
// added. Ids outside visible are never touched.
func (m *Manager) SetAllVisible(visible []model.FlowID) {
	if len(visible) == 0 {
		return
	}
	m.update(func(s Set) Set {
		if s.HasAll(visible) {
			return s.Without(visible...)
		}
		return s.With(visible...)
	})
}

// IsSelected reports membership of id.
func (m *Manager) IsSelected(id model.FlowID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Has(id)
}

// AllSelected reports whether every id is selected; false for no ids.
func (m *Manager) AllSelected(ids []model.FlowID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.HasAll(ids)
}

// Size returns the number of selected ids.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Len()
}

// IDs returns the selected ids in sorted order.
func (m *Manager) IDs() []model.FlowID {
	return m.Snapshot().Sorted()
}

// Snapshot returns the current immutable set.
func (m *Manager) Snapshot() Set {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set
}

func (m *Manager) update(fn func(Set) Set) {
	m.mu.Lock()
	prev := m.set
	next := fn(prev)
	m.set = next
	listener := m.onChange
	m.mu.Unlock()

	if listener != nil && !sameMembers(prev, next) {
		listener(next)
	}
}

func sameMembers(a, b Set) bool {
	if a.Len() != b.Len() {
		return false
	}
	for id := range a.ids {
		if !b.Has(id) {
			return false
		}
	}
	return true
}
