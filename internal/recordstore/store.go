package recordstore

import (
	"sync"

	"github.com/totegamma/transparence/internal/domain"
)

// Store owns the remote and local record sets of a running service. Readers
// get immutable snapshots; writers replace slices rather than mutating them.
type Store struct {
	mu     sync.RWMutex
	remote []domain.Record
	local  []domain.Record
}

func NewStore() *Store {
	return &Store{}
}

// ReplaceRemote swaps in a freshly decoded journal batch.
func (s *Store) ReplaceRemote(records []domain.Record) {
	next := make([]domain.Record, len(records))
	copy(next, records)

	s.mu.Lock()
	s.remote = next
	s.mu.Unlock()
}

// AddLocal appends locally created records. A record whose id already exists
// locally replaces the earlier one.
func (s *Store) AddLocal(records ...domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Record, 0, len(s.local)+len(records))
	next = append(next, s.local...)
	next = append(next, records...)
	s.local = next
}

// ConfirmLocal supersedes the local token id with a confirmed hash.
func (s *Store) ConfirmLocal(id, hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.local {
		if s.local[i].ID != id {
			continue
		}
		next := make([]domain.Record, len(s.local))
		copy(next, s.local)
		next[i].Confirm(hash)
		s.local = next
		return true
	}
	return false
}

// Snapshot returns the merged view of both sets.
func (s *Store) Snapshot() []domain.Record {
	s.mu.RLock()
	remote, local := s.remote, s.local
	s.mu.RUnlock()

	return Merge(remote, local)
}

func (s *Store) Get(id string) (domain.Record, bool) {
	for _, r := range s.Snapshot() {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Record{}, false
}

// Counts reports the size of each set before merging.
func (s *Store) Counts() (remote, local int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.remote), len(s.local)
}
