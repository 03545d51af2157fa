package tablefs

import "github.com/pdlfs/tablefs/tferr"

// Unlink removes a regular file at path (spec.md §4.7's Unlink row).
// It fails with FileExpected if the target is a directory or the path
// names the root or ends in a trailing slash.
func (fs *Filesystem) Unlink(user User, path string) *tferr.Error {
	res, rerr := fs.resolve(user, fs.root.snapshot(), path)
	if rerr != nil {
		return rerr
	}
	if res.lastComp == "" || res.tailingSlash {
		return tferr.FileExpectedError(path)
	}

	if !isDirWriteOK(&res.parent, user, fs.opts.skipPermChecks) {
		return tferr.AccessDeniedError(path)
	}

	parent := res.parent.Ino
	name := res.lastComp

	unlock := fs.locks.lock(parent, name)
	defer unlock()

	if !fs.opts.skipDeletionChecks {
		child, lerr := fs.getEntry(parent, name)
		if lerr != nil {
			return lerr.WithPath(path)
		}
		if IsDir(child.FileMode) {
			return tferr.FileExpectedError(path)
		}
	}

	if err := fs.store.Delete(EncodeEntryKey(parent, name)); err != nil {
		if isNotFound(err) {
			return tferr.NotFoundError(path)
		}
		return tferr.IoErrorFrom(err)
	}
	fs.cache.erase(parent, name)
	if parent == RootIno {
		fs.root.touch(now())
	}
	return nil
}

// Rmdir removes an empty directory at path (spec.md §4.7's Rmdir row).
// It takes the global stripe barrier, since it must observe every
// potential child atomically with respect to concurrent inserts into
// any stripe (spec.md §5 rule 3).
func (fs *Filesystem) Rmdir(user User, path string) *tferr.Error {
	res, rerr := fs.resolve(user, fs.root.snapshot(), path)
	if rerr != nil {
		return rerr
	}
	if res.lastComp == "" {
		return tferr.AssertionFailedError("rmdir: cannot remove root")
	}

	if !isDirWriteOK(&res.parent, user, fs.opts.skipPermChecks) {
		return tferr.AccessDeniedError(path)
	}

	parent := res.parent.Ino
	name := res.lastComp

	unlock := fs.locks.lockAll()
	defer unlock()

	child, lerr := fs.getEntry(parent, name)
	if lerr != nil {
		return lerr.WithPath(path)
	}
	if !IsDir(child.FileMode) {
		return tferr.DirExpectedError(path)
	}

	if !fs.opts.skipDeletionChecks {
		empty, err := fs.isEmpty(child.Ino)
		if err != nil {
			return err.WithPath(path)
		}
		if !empty {
			return tferr.DirNotEmptyError(path)
		}
	}

	if err := fs.store.Delete(EncodeEntryKey(parent, name)); err != nil {
		if isNotFound(err) {
			return tferr.NotFoundError(path)
		}
		return tferr.IoErrorFrom(err)
	}
	fs.cache.erase(parent, name)
	if parent == RootIno {
		fs.root.touch(now())
	}
	return nil
}

// isEmpty reports whether ino's directory has any entries, via a
// single-key prefix scan (spec.md §4.7's Rmdir row). ScanFrom only
// guarantees keys >= prefix, not keys sharing it, so the first result
// must still be checked against the prefix before it counts as a child.
func (fs *Filesystem) isEmpty(ino Ino) (bool, *tferr.Error) {
	prefix := entryKeyPrefix(ino)
	cursor := fs.store.ScanFrom(prefix)
	defer cursor.Close()

	hasEntry := cursor.Next() && hasPrefix(cursor.Key(), prefix)
	if err := cursor.Err(); err != nil {
		return false, tferr.IoErrorFrom(err)
	}
	return !hasEntry, nil
}
