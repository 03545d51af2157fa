// Package memory implements kv.Store as an in-process ordered map,
// guarded by a single mutex the way the teacher's memory-backed
// metadata store guards its maps (pkg/metadata/store/memory/crud.go).
// Keys are kept in a sorted slice rather than a Go map so ScanFrom can
// support ordered prefix iteration; a Go map alone has no order.
//
// Store is meant for tests and for images that don't need durability.
// It never persists anything and Flush is a no-op.
package memory

import (
	"bytes"
	"sort"
	"sync"

	"github.com/pdlfs/tablefs/kv"
)

type entry struct {
	key   []byte
	value []byte
}

// Store is a mutex-guarded, sorted in-memory kv.Store.
type Store struct {
	mu      sync.RWMutex
	entries []entry
	closed  bool
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) find(key []byte) (int, bool) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return bytes.Compare(s.entries[i].key, key) >= 0
	})
	if i < len(s.entries) && bytes.Equal(s.entries[i].key, key) {
		return i, true
	}
	return i, false
}

// Get implements kv.Store.
func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.find(key)
	if !ok {
		return nil, kv.ErrNotFound
	}
	out := make([]byte, len(s.entries[i].value))
	copy(out, s.entries[i].value)
	return out, nil
}

// Put implements kv.Store.
func (s *Store) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)

	i, ok := s.find(k)
	if ok {
		s.entries[i].value = v
		return nil
	}

	s.entries = append(s.entries, entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = entry{key: k, value: v}
	return nil
}

// Delete implements kv.Store.
func (s *Store) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.find(key)
	if !ok {
		return kv.ErrNotFound
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return nil
}

// ScanFrom implements kv.Store. The returned cursor snapshots the
// matching keys at call time; concurrent mutations are not observed.
func (s *Store) ScanFrom(prefix []byte) kv.Cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := sort.Search(len(s.entries), func(i int) bool {
		return bytes.Compare(s.entries[i].key, prefix) >= 0
	})

	snapshot := make([]entry, 0, len(s.entries)-start)
	for _, e := range s.entries[start:] {
		snapshot = append(snapshot, entry{
			key:   append([]byte(nil), e.key...),
			value: append([]byte(nil), e.value...),
		})
	}
	return &cursor{entries: snapshot, pos: -1}
}

// Flush implements kv.Store. It is a no-op: memory stores have no
// durability to flush.
func (s *Store) Flush() error {
	return nil
}

// Close implements kv.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type cursor struct {
	entries []entry
	pos     int
}

func (c *cursor) Next() bool {
	if c.pos+1 >= len(c.entries) {
		return false
	}
	c.pos++
	return true
}

func (c *cursor) Key() []byte   { return c.entries[c.pos].key }
func (c *cursor) Value() []byte { return c.entries[c.pos].value }
func (c *cursor) Err() error    { return nil }
func (c *cursor) Close() error  { return nil }

var _ kv.Store = (*Store)(nil)
