package tablefs

import (
	"github.com/pdlfs/tablefs/kv"
	"github.com/pdlfs/tablefs/tferr"
)

// DirEntry is one (name, Stat) pair yielded by Readdir.
type DirEntry struct {
	Name string
	Stat Stat
}

// Dir is a directory scan cursor, following the Opened -> (Readdir)* ->
// Closed state machine of spec.md §4.8. The zero value is not usable;
// obtain one from Opendir.
type Dir struct {
	ino       Ino
	prefix    []byte
	cursor    kv.Cursor
	exhausted bool
	closed    bool
}

// Opendir resolves path, verifies the target is a directory the caller
// may read, and returns a cursor seeded at the target's own entries
// (spec.md §4.7's Opendir row).
func (fs *Filesystem) Opendir(user User, at *Stat, path string) (*Dir, *tferr.Error) {
	res, rerr := fs.resolve(user, fs.anchor(at), path)
	if rerr != nil {
		return nil, rerr
	}

	var target Stat
	if res.lastComp == "" {
		target = res.parent
	} else {
		child, lerr := fs.getEntry(res.parent.Ino, res.lastComp)
		if lerr != nil {
			return nil, lerr.WithPath(path)
		}
		target = child
	}
	if !IsDir(target.FileMode) {
		return nil, tferr.DirExpectedError(path)
	}
	if !isDirReadOK(&target, user, fs.opts.skipPermChecks) {
		return nil, tferr.AccessDeniedError(path)
	}

	prefix := entryKeyPrefix(target.Ino)
	return &Dir{
		ino:    target.Ino,
		prefix: prefix,
		cursor: fs.store.ScanFrom(prefix),
	}, nil
}

// Readdir advances the cursor and decodes the next entry (spec.md
// §4.7's Readdir row). It returns a NotFound error at end-of-directory;
// callers must treat that as the normal termination signal, not a
// failure.
func (d *Dir) Readdir() (DirEntry, *tferr.Error) {
	if d.closed {
		return DirEntry{}, tferr.New(tferr.AssertionFailed, "readdir on closed cursor")
	}
	if d.exhausted {
		return DirEntry{}, tferr.NotFoundError("")
	}

	if !d.cursor.Next() {
		d.exhausted = true
		if err := d.cursor.Err(); err != nil {
			return DirEntry{}, tferr.IoErrorFrom(err)
		}
		return DirEntry{}, tferr.NotFoundError("")
	}

	key := d.cursor.Key()
	if !hasPrefix(key, d.prefix) {
		d.exhausted = true
		return DirEntry{}, tferr.NotFoundError("")
	}

	stat, decErr := DecodeStat(d.cursor.Value())
	if decErr != nil {
		return DirEntry{}, tferr.CorruptionError("", decErr)
	}
	return DirEntry{Name: entryNameFromKey(key), Stat: *stat}, nil
}

// Closedir releases the cursor's resources (spec.md §4.7's Closedir
// row). Closedir is idempotent.
func (d *Dir) Closedir() *tferr.Error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.cursor.Close(); err != nil {
		return tferr.IoErrorFrom(err)
	}
	return nil
}
