package tablefs

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// stripedLocks is the fixed-size mutex array spec.md §5 describes: K
// (a power of two) independent mutexes, indexed by hashing a
// (parent, name) pair, so unrelated names rarely contend on the same
// lock while a bounded number of locks caps total memory use.
type stripedLocks struct {
	mus []sync.Mutex
	k   uint64
}

func newStripedLocks(k int) *stripedLocks {
	if !isPowerOfTwo(k) {
		panic("tablefs: stripe count must be a power of two")
	}
	return &stripedLocks{mus: make([]sync.Mutex, k), k: uint64(k)}
}

// index computes the stripe for (parent, name) by hashing the same
// cache key encoding the lookup cache uses, per spec.md §5.
func (s *stripedLocks) index(parent Ino, name string) uint64 {
	key := EncodeCacheKey(parent, name)
	return xxhash.Sum64(key[:]) & (s.k - 1)
}

// lock acquires the single stripe covering (parent, name) and returns
// an unlock function, for the read-modify-write ops (Mkdir, Mkfile,
// Unlink) that spec.md §5 rule 2 says take exactly one stripe lock.
func (s *stripedLocks) lock(parent Ino, name string) func() {
	i := s.index(parent, name)
	s.mus[i].Lock()
	return s.mus[i].Unlock
}

// lockAll acquires every stripe in ascending index order and returns a
// function that releases them in descending order, for Rmdir's global
// barrier (spec.md §5 rule 3): it must observe every potential child
// atomically with respect to concurrent inserts into any stripe.
func (s *stripedLocks) lockAll() func() {
	for i := range s.mus {
		s.mus[i].Lock()
	}
	return func() {
		for i := len(s.mus) - 1; i >= 0; i-- {
			s.mus[i].Unlock()
		}
	}
}
