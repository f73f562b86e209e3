package flowstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

func sampleFlows() []model.Flow {
	return []model.Flow{
		{ID: "1", Method: "GET", URL: "/a", Status: model.IntPtr(200)},
		{ID: "2", Method: "POST", URL: "/b", Status: model.IntPtr(404)},
	}
}

func TestStore_ReplaceAll(t *testing.T) {
	t.Parallel()

	s := New()
	require.Empty(t, s.Current())
	require.Zero(t, s.Version())

	changed := s.ReplaceAll(sampleFlows())
	assert.True(t, changed)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, uint64(1), s.Version())
	assert.False(t, s.UpdatedAt().IsZero())

	changed = s.ReplaceAll(sampleFlows())
	assert.False(t, changed, "identical snapshot should not count as a change")
	assert.Equal(t, uint64(2), s.Version())

	changed = s.ReplaceAll(nil)
	assert.True(t, changed)
	assert.Empty(t, s.Current())
}

func TestStore_ReplaceAllCopiesInput(t *testing.T) {
	t.Parallel()

	s := New()
	in := sampleFlows()
	s.ReplaceAll(in)
	in[0].URL = "/mutated"

	assert.Equal(t, "/a", s.Current()[0].URL)
}

func TestStore_FirstEmptySnapshotIsAChange(t *testing.T) {
	t.Parallel()

	s := New()
	assert.True(t, s.ReplaceAll(nil))
	assert.Equal(t, uint64(1), s.Version())
}

func TestStore_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	t.Parallel()

	s := New()
	a := sampleFlows()
	b := []model.Flow{{ID: "9", Method: "PUT", URL: "/z"}}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if (i+j)%2 == 0 {
					s.ReplaceAll(a)
				} else {
					s.ReplaceAll(b)
				}
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				cur := s.Current()
				if len(cur) != 0 && len(cur) != len(a) && len(cur) != len(b) {
					t.Errorf("observed partial snapshot of len %d", len(cur))
				}
			}
		}()
	}
	wg.Wait()
}

func TestFingerprint_StatusMatters(t *testing.T) {
	t.Parallel()

	a := []model.Flow{{ID: "1", Method: "GET", URL: "/a"}}
	b := []model.Flow{{ID: "1", Method: "GET", URL: "/a", Status: model.IntPtr(200)}}
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
