package tablefs

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/pdlfs/tablefs/kv"
	"github.com/pdlfs/tablefs/tferr"
)

// initialNextIno resolves the Open Question in spec.md §9: the next
// inode counter starts at 1 on a fresh image (ino 0 is permanently
// reserved for root).
const initialNextIno = 1

// rootState holds the in-memory superblock: the root directory's own
// Stat, the next inode to allocate, and the raw bytes the image was
// loaded with so Close can skip rewriting an unchanged root — the
// "prev_root" dirty-bit optimization spec.md §4.3 and §9 call out.
type rootState struct {
	mu      sync.Mutex
	stat    Stat
	nextIno uint64
	prevEnc []byte
}

// loadRoot implements the Open sequence of spec.md §4.3: read the
// well-known "/" key, initializing a fresh superblock on NotFound.
func loadRoot(store kv.Store) (*rootState, error) {
	data, err := store.Get(rootKey)
	if errors.Is(err, kv.ErrNotFound) {
		root := newRootStat()
		return &rootState{
			stat:    *root,
			nextIno: initialNextIno,
			prevEnc: nil,
		}, nil
	}
	if err != nil {
		return nil, tferr.IoErrorFrom(err)
	}

	stat, nextIno, decErr := DecodeRoot(data)
	if decErr != nil {
		return nil, tferr.CorruptionError("/", decErr)
	}

	return &rootState{
		stat:    *stat,
		nextIno: nextIno,
		prevEnc: append([]byte(nil), data...),
	}, nil
}

// newRootStat builds the root directory's Stat for a brand-new image:
// ino 0, S_IFDIR|S_ISVTX|0777, owned by uid/gid 0, zero timestamps —
// exactly the values spec.md §4.3 step 2 specifies.
func newRootStat() *Stat {
	s := &Stat{
		Ino:        RootIno,
		FileSize:   0,
		FileMode:   uint32(TypeDirectory) | 0o1000 | 0o777, // S_ISVTX == 0o1000
		UID:        0,
		GID:        0,
		ModifyTime: 0,
		ChangeTime: 0,
	}
	return s.finalize()
}

// snapshot returns a copy of the current root Stat, safe to hand to a
// caller (e.g. Lstat("/")).
func (r *rootState) snapshot() Stat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stat
}

// allocate bumps the inode counter under the root mutex and returns
// the newly allocated inode, per spec.md §4.3's single-counter
// allocator. Allocation is monotonic across crashes because the
// counter is only persisted on a clean Close; a crash loses
// uncommitted numbers but never reuses one that was ever returned from
// here after a successful Close.
func (r *rootState) allocate() Ino {
	r.mu.Lock()
	defer r.mu.Unlock()
	ino := Ino(r.nextIno)
	r.nextIno++
	return ino
}

// touch updates the root Stat's timestamps, used when a direct child of
// root is created or removed.
func (r *rootState) touch(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stat.ModifyTime = now.UnixNano()
	r.stat.ChangeTime = now.UnixNano()
}

// persist implements the Close sequence of spec.md §4.3: write the
// root record back only if its encoding differs from what was loaded.
func (r *rootState) persist(store kv.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	enc := EncodeRoot(&r.stat, r.nextIno)
	if bytes.Equal(enc, r.prevEnc) {
		return nil
	}
	if err := store.Put(rootKey, enc); err != nil {
		return tferr.IoErrorFrom(err)
	}
	r.prevEnc = enc
	return nil
}
