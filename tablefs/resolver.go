package tablefs

import (
	"strings"

	"github.com/pdlfs/tablefs/tferr"
)

// resolved is the outcome of a successful path resolution: the parent
// directory's Stat, the final path component, and whether the input
// path ended in a trailing slash (spec.md §4.6).
type resolved struct {
	parent       Stat
	lastComp     string
	tailingSlash bool
}

// resolve walks pathname component by component starting at atStat,
// following spec.md §4.6's iterative algorithm. Every interior
// component must resolve to a directory the caller may traverse
// (execute permission); the final component is returned unresolved so
// the caller can decide what operation to perform on it.
//
// On failure the returned error's Path is the prefix of pathname up to
// (not including) the segment that could not be resolved, so callers
// can identify the failing ancestor (spec.md §4.9).
func (fs *Filesystem) resolve(user User, atStat Stat, pathname string) (resolved, *tferr.Error) {
	if len(pathname) == 0 || pathname[0] != '/' {
		return resolved{}, tferr.InvalidArgumentError("path must be absolute")
	}

	current := atStat
	p := 0 // index of the '/' immediately before the segment under consideration

	for {
		segStart := p // prefix to report if this segment fails to resolve

		q := p + 1
		for q < len(pathname) && pathname[q] != '/' {
			q++
		}

		if q == len(pathname) {
			// (p, q) is the last segment: nothing more to resolve through.
			break
		}

		if q == p+1 {
			// Empty segment: consecutive slashes. Skip it.
			p = q
			continue
		}

		// Look ahead past q: if the rest of the path is only more
		// slashes, this segment is the last one (a directory reference
		// with a trailing slash), not an interior component.
		c := q + 1
		for c < len(pathname) && pathname[c] == '/' {
			c++
		}
		if c == len(pathname) {
			break
		}

		name := pathname[p+1 : q]
		p = c - 1

		if !isLookupOK(&current, user, fs.opts.skipPermChecks) {
			return resolved{}, tferr.AccessDeniedError(pathname[:segStart])
		}

		child, err := fs.lookupWithCache(current.Ino, name)
		if err != nil {
			return resolved{}, err.WithPath(pathname[:segStart])
		}
		current = child
	}

	last := pathname[p+1:]
	last = strings.TrimRight(last, "/")

	var tailingSlash bool
	if end := p + 1 + len(last); last != "" && end < len(pathname) {
		tailingSlash = pathname[end] == '/'
	}

	return resolved{parent: current, lastComp: last, tailingSlash: tailingSlash}, nil
}

// lookupWithCache resolves name within the directory identified by
// parent, consulting and then refilling the striped lookup cache
// (spec.md §4.4, §4.6 step 2f). It always requires the result to be a
// directory, since every caller is the resolver walking an interior
// path component; a resolved non-directory is never cached and is
// reported as DirExpected rather than handed back to the caller.
//
// Mutex locking is only needed when the cache is enabled, to make the
// miss-then-fetch-then-insert sequence atomic (spec.md §5 Lock Rule 4):
// with the cache disabled every interior read goes straight to the
// store unlocked.
func (fs *Filesystem) lookupWithCache(parent Ino, name string) (Stat, *tferr.Error) {
	if !fs.cache.enabled() {
		return fs.fetchEntry(parent, name)
	}

	if stat, ok := fs.cache.get(parent, name); ok {
		return stat, nil
	}

	unlock := fs.locks.lock(parent, name)
	defer unlock()

	// Re-check the cache now that we hold the stripe: another goroutine
	// may have populated it while we were waiting for the lock.
	if stat, ok := fs.cache.get(parent, name); ok {
		return stat, nil
	}

	stat, err := fs.fetchEntry(parent, name)
	if err != nil {
		return Stat{}, err
	}

	fs.cache.put(parent, name, stat)
	return stat, nil
}

// fetchEntry reads and decodes (parent, name) directly from the store,
// requiring the result to be a directory.
func (fs *Filesystem) fetchEntry(parent Ino, name string) (Stat, *tferr.Error) {
	key := EncodeEntryKey(parent, name)
	data, err := fs.store.Get(key)
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
	if !IsDir(stat.FileMode) {
		return Stat{}, tferr.DirExpectedError("")
	}
	return *stat, nil
}
