package selection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

func TestToggle_ParityOfToggles(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	ids := []model.FlowID{"a", "b", "c", "d"}
	counts := map[model.FlowID]int{}

	m := NewManager()
	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		m.Toggle(id)
		counts[id]++
	}

	for _, id := range ids {
		assert.Equal(t, counts[id]%2 == 1, m.IsSelected(id), "id %s toggled %d times", id, counts[id])
	}
}

func TestToggle_OrderIndependent(t *testing.T) {
	t.Parallel()

	a := NewManager()
	a.Toggle("1")
	a.Toggle("2")
	a.Toggle("3")

	b := NewManager()
	b.Toggle("3")
	b.Toggle("1")
	b.Toggle("2")

	assert.Equal(t, a.IDs(), b.IDs())
}

func TestSetAllVisible_Involution(t *testing.T) {
	t.Parallel()

	m := NewManager()
	m.Toggle("outside")
	m.Toggle("1")

	visible := []model.FlowID{"1", "2", "3"}
	before := m.IDs()

	m.SetAllVisible(visible)
	assert.True(t, m.AllSelected(visible))
	assert.Equal(t, 4, m.Size())

	m.SetAllVisible(visible)
	assert.Equal(t, []model.FlowID{"outside"}, m.IDs())
	assert.NotEqual(t, before, m.IDs(), "partial overlap selects the rest first, then deselects all")
}

func TestSetAllVisible_PartialOverlapSelectsRemaining(t *testing.T) {
	t.Parallel()

	m := NewManager()
	m.Toggle("1")
	m.SetAllVisible([]model.FlowID{"1", "2"})

	assert.True(t, m.IsSelected("1"))
	assert.True(t, m.IsSelected("2"))
}

func TestSetAllVisible_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	m := NewManager()
	m.Toggle("1")
	calls := 0
	m.OnChange(func(Set) { calls++ })

	m.SetAllVisible(nil)

	assert.Equal(t, 1, m.Size())
	assert.Zero(t, calls)
}

func TestSetAllVisible_TwiceWithoutPriorSelectionRestores(t *testing.T) {
	t.Parallel()

	m := NewManager()
	visible := []model.FlowID{"1"}
	m.SetAllVisible(visible)
	require.Equal(t, []model.FlowID{"1"}, m.IDs())
	m.SetAllVisible(visible)
	assert.Zero(t, m.Size())
}

func TestClear(t *testing.T) {
	t.Parallel()

	m := NewManager()
	m.Toggle("1")
	m.Toggle("2")

	var got []Set
	m.OnChange(func(s Set) { got = append(got, s) })
	m.Clear()
	m.Clear()

	assert.Zero(t, m.Size())
	require.Len(t, got, 1, "second clear changes nothing")
	assert.Zero(t, got[0].Len())
}

func TestSnapshotIsImmutable(t *testing.T) {
	t.Parallel()

	m := NewManager()
	m.Toggle("1")
	snap := m.Snapshot()
	m.Toggle("2")
	m.Toggle("1")

	assert.True(t, snap.Has("1"))
	assert.False(t, snap.Has("2"))
	assert.Equal(t, 1, snap.Len())
}

func TestIDsSorted(t *testing.T) {
	t.Parallel()

	m := NewManager()
	for _, id := range []model.FlowID{"c", "a", "b"} {
		m.Toggle(id)
	}
	assert.Equal(t, []model.FlowID{"a", "b", "c"}, m.IDs())
}

func TestToggle_ReportsMembership(t *testing.T) {
	t.Parallel()

	m := NewManager()
	assert.True(t, m.Toggle("1"))
	assert.False(t, m.Toggle("1"))
	assert.True(t, m.Toggle("1"))
	assert.Equal(t, 1, m.Size())
}

func TestAdd_IsUnion(t *testing.T) {
	t.Parallel()

	m := NewManager()
	m.Add("2")
	m.Add("2")
	assert.True(t, m.IsSelected("2"), "adding twice keeps the id")

	m.Add("2", "3")
	assert.Equal(t, []model.FlowID{"2", "3"}, m.IDs())

	changes := 0
	m.OnChange(func(Set) { changes++ })
	m.Add()
	m.Add("3")
	assert.Zero(t, changes, "adding nothing new is silent")
}
