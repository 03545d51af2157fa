package tablefs

import (
	"errors"
	"log/slog"
	"time"

	"github.com/pdlfs/tablefs/kv"
	"github.com/pdlfs/tablefs/tferr"
)

// Filesystem is a TableFS metadata store backed by a kv.Store. The
// zero value is not usable; construct one with Open.
//
// Filesystem follows the New -> Open -> Closed state machine of
// spec.md §4.8: Open is terminal on failure — it returns no
// Filesystem at all — and no method may be called after Close.
type Filesystem struct {
	opts  Options
	store kv.Store
	root  *rootState
	cache *lookupCache
	locks *stripedLocks
	log   *slog.Logger

	closed bool
}

// Open builds a Filesystem over store, loading (or initializing) the
// root record and preparing the striped locks and lookup cache
// (spec.md §4.3, §4.8). store must already be open; Open does not
// itself connect to a backend, matching the "core is generic over
// kv.Store" boundary in spec.md §4.1.
func Open(store kv.Store, options ...Option) (*Filesystem, error) {
	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}
	if !isPowerOfTwo(opts.stripeCount) {
		panic("tablefs: stripe count must be a power of two")
	}

	root, err := loadRoot(store)
	if err != nil {
		// Terminal failure: nothing is left half-initialized to leak.
		return nil, err
	}

	fs := &Filesystem{
		opts:  opts,
		store: store,
		root:  root,
		cache: newLookupCache(defaultCacheStripes, opts.cacheSize),
		locks: newStripedLocks(opts.stripeCount),
		log:   opts.logger,
	}
	fs.log.Debug("tablefs: opened", "next_inode", root.nextIno)
	return fs, nil
}

// Close persists the root record if it changed since load, flushes the
// underlying store, and marks fs unusable (spec.md §4.3, §4.8). Close
// is idempotent; calling it more than once is a no-op after the first.
func (fs *Filesystem) Close() error {
	if fs.closed {
		return nil
	}
	fs.closed = true

	if !fs.opts.readOnly {
		if err := fs.root.persist(fs.store); err != nil {
			fs.log.Warn("tablefs: failed to persist root on close", "error", err)
			return err
		}
	}
	if err := fs.store.Flush(); err != nil {
		return tferr.IoErrorFrom(err)
	}
	return fs.store.Close()
}

// anchor resolves the optional "at" Stat callers may supply so
// relative-feeling calls (spec.md §6's "at?" parameter) still start
// resolution from a caller-supplied directory. A nil at anchors at
// root, matching the default anchor spec.md §4.6 assumes.
func (fs *Filesystem) anchor(at *Stat) Stat {
	if at != nil {
		return *at
	}
	return fs.root.snapshot()
}

// Lstat resolves path and returns the Stat of its final component
// (spec.md §4.6 root special case, §4.7's Lstat row). If path names
// the root itself, the root Stat is returned directly.
func (fs *Filesystem) Lstat(user User, at *Stat, path string) (Stat, *tferr.Error) {
	if fs.closed {
		return Stat{}, tferr.IoErrorFrom(errUseAfterClose)
	}

	res, rerr := fs.resolve(user, fs.anchor(at), path)
	if rerr != nil {
		return Stat{}, rerr
	}
	if res.lastComp == "" {
		return res.parent, nil
	}

	child, lerr := fs.getEntry(res.parent.Ino, res.lastComp)
	if lerr != nil {
		return Stat{}, lerr.WithPath(path)
	}
	if res.tailingSlash && !IsDir(child.FileMode) {
		return Stat{}, tferr.DirExpectedError(path)
	}
	return child, nil
}

// getEntry performs a bare, uncached KV lookup of (parent, name),
// used by operations (Lstat, Unlink, Rmdir, Mkdir/Mkfile's
// pre-existence check) that must not populate the directory-only
// lookup cache with a result that may not even be a directory.
func (fs *Filesystem) getEntry(parent Ino, name string) (Stat, *tferr.Error) {
	data, err := fs.store.Get(EncodeEntryKey(parent, name))
	if err != nil {
		if isNotFound(err) {
			return Stat{}, tferr.NotFoundError("")
		}
		return Stat{}, tferr.IoErrorFrom(err)
	}
	stat, decErr := DecodeStat(data)
	if decErr != nil {
		return Stat{}, tferr.CorruptionError("", decErr)
	}
	return *stat, nil
}

// isNotFound reports whether err is the backend's not-found sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, kv.ErrNotFound)
}

var errUseAfterClose = errors.New("tablefs: filesystem is closed")

// now is the single clock read every mutating operation uses to stamp
// modify_time/change_time, kept as a var so tests can override it.
var now = time.Now
