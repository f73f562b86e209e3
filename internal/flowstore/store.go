package flowstore

import (
	"strconv"
	"sync"
	"time"

	"github.com/tinytelemetry/flowdeck/internal/model"
	"github.com/zeebo/xxh3"
)

// Store holds the latest flow snapshot. Snapshots are replaced wholesale;
// readers always see either the previous or the next snapshot, never a mix.
type Store struct {
	mu          sync.RWMutex
	flows       []model.Flow
	fingerprint uint64
	version     uint64
	updatedAt   time.Time
	now         func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// ReplaceAll swaps in a new snapshot. The slice is copied so later mutation
// by the caller cannot leak into the store. It reports whether the content
// differs from the previous snapshot.
func (s *Store) ReplaceAll(flows []model.Flow) bool {
	snapshot := make([]model.Flow, len(flows))
	copy(snapshot, flows)
	fp := Fingerprint(snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.version == 0 || fp != s.fingerprint
	s.flows = snapshot
	s.fingerprint = fp
	s.version++
	s.updatedAt = s.now()
	return changed
}

// Current returns the latest snapshot. The returned slice is shared and must
// not be modified.
func (s *Store) Current() []model.Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flows
}

// Len returns the number of flows in the snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flows)
}

// Version counts successful replacements; 0 means nothing was ever loaded.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// UpdatedAt is the time of the last replacement.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Fingerprint hashes the fields the dashboard renders, in order.
func Fingerprint(flows []model.Flow) uint64 {
	h := xxh3.New()
	sep := []byte{0}
	for _, f := range flows {
		h.Write([]byte(f.ID))
		h.Write(sep)
		h.Write([]byte(f.Method))
		h.Write(sep)
		h.Write([]byte(f.URL))
		h.Write(sep)
		if f.Status != nil {
			h.Write([]byte(strconv.Itoa(*f.Status)))
		}
		h.Write([]byte{'\n'})
	}
	return h.Sum64()
}
