package ordr

import (
	"fmt"
	"sync"

	"github.com/casperin/ordr/internal/blob"
)

// Store is the identity-keyed, serialized value map a run reads inputs from
// and writes outputs to. Entries are write-once: a second Put for the same
// Identity is a programming error. Store uses a single mutex over the
// backing map; reads and writes are short (a map lookup plus a byte-slice
// copy), so contention is not worth trading away the simplicity of one lock
// for.
type Store struct {
	mu     sync.Mutex
	values map[Identity]Blob
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{values: make(map[Identity]Blob)}
}

// errAlreadyPresent is wrapped into the error returned by Put when id has
// already been written.
var errAlreadyPresent = fmt.Errorf("ordr: value already present")

// Put writes b under id. It fails if id is already present; Put happens-
// before any later Get of the same id, satisfying the store's memory
// visibility guarantee.
func (s *Store) Put(id Identity, b Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[id]; ok {
		return fmt.Errorf("ordr: put %q: %w", id, errAlreadyPresent)
	}
	cp := make(Blob, len(b))
	copy(cp, b)
	s.values[id] = cp
	return nil
}

// GetBlob returns the raw blob stored under id.
func (s *Store) GetBlob(id Identity) (Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.values[id]
	if !ok {
		return nil, false
	}
	cp := make(Blob, len(b))
	copy(cp, b)
	return cp, true
}

// Contains reports whether id has a value.
func (s *Store) Contains(id Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[id]
	return ok
}

// Snapshot is a point-in-time, identity-to-blob copy of a Store, suitable
// for persisting and later passing to Builder.WithData to resume a job.
type Snapshot map[Identity]Blob

// Snapshot returns a consistent copy of every value currently in s.
// Snapshot is linearizable with respect to Put: a snapshot taken after a
// Put happens-before returns observes that value.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Snapshot, len(s.values))
	for id, b := range s.values {
		cp := make(Blob, len(b))
		copy(cp, b)
		out[id] = cp
	}
	return out
}

// Get deserializes the value stored under id into T.
func Get[T any](s *Store, id Identity) (T, error) {
	var zero T
	b, ok := s.GetBlob(id)
	if !ok {
		return zero, fmt.Errorf("ordr: get %q: %w", id, errMissingValue)
	}
	v, err := blob.Decode[T](b)
	if err != nil {
		return zero, fmt.Errorf("ordr: get %q: %w", id, err)
	}
	return v, nil
}

// Put encodes v and writes it under id.
func Put[T any](s *Store, id Identity, v T) error {
	b, err := blob.Encode(v)
	if err != nil {
		return fmt.Errorf("ordr: put %q: %w", id, err)
	}
	return s.Put(id, b)
}

var errMissingValue = fmt.Errorf("ordr: missing value")
