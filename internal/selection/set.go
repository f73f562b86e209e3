package selection

import (
	"sort"

	"github.com/tinytelemetry/flowdeck/internal/model"
)

// Set is an immutable set of flow ids. Every mutation returns a new Set and
// leaves the receiver untouched, so a Set can be shared freely.
type Set struct {
	ids map[model.FlowID]struct{}
}

// NewSet builds a set from ids.
func NewSet(ids ...model.FlowID) Set {
	m := make(map[model.FlowID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Set{ids: m}
}

// Has reports whether id is in the set.
func (s Set) Has(id model.FlowID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ids in the set.
func (s Set) Len() int {
	return len(s.ids)
}

// HasAll reports whether every id is present. It is false for no ids.
func (s Set) HasAll(ids []model.FlowID) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// With returns a copy with ids added.
func (s Set) With(ids ...model.FlowID) Set {
	next := s.clone(len(ids))
	for _, id := range ids {
		next.ids[id] = struct{}{}
	}
	return next
}

// Without returns a copy with ids removed.
func (s Set) Without(ids ...model.FlowID) Set {
	next := s.clone(0)
	for _, id := range ids {
		delete(next.ids, id)
	}
	return next
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []model.FlowID {
	out := make([]model.FlowID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) clone(extra int) Set {
	m := make(map[model.FlowID]struct{}, len(s.ids)+extra)
	for id := range s.ids {
		m[id] = struct{}{}
	}
	return Set{ids: m}
}
