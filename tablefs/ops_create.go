package tablefs

import "github.com/pdlfs/tablefs/tferr"

// Mkdir creates a directory at path with the given permission bits
// (spec.md §4.7's Mkdir row). mode's type bits, if any, are ignored;
// the entry is always tagged S_IFDIR.
func (fs *Filesystem) Mkdir(user User, at *Stat, path string, mode uint32) *tferr.Error {
	return fs.create(user, at, path, uint32(TypeDirectory), mode, false)
}

// Mkfile creates a regular file at path with the given permission bits
// (spec.md §4.7's Mkfile row). A trailing slash is rejected: a
// regular file can never be named with one.
func (fs *Filesystem) Mkfile(user User, at *Stat, path string, mode uint32) *tferr.Error {
	return fs.create(user, at, path, uint32(TypeRegular), mode, true)
}

// create implements the shared Mkdir/Mkfile logic of spec.md §4.7:
// resolve, reject the root special case, check the parent's write
// permission, then — unless skip_name_collision_checks is set — take
// the (parent, name) stripe lock, re-check for an existing entry, and
// insert.
func (fs *Filesystem) create(user User, at *Stat, path string, typeTag, mode uint32, rejectTrailingSlash bool) *tferr.Error {
	res, rerr := fs.resolve(user, fs.anchor(at), path)
	if rerr != nil {
		return rerr
	}
	if res.lastComp == "" {
		return tferr.AlreadyExistsError(path)
	}
	if rejectTrailingSlash && res.tailingSlash {
		return tferr.FileExpectedError(path)
	}

	if !isDirWriteOK(&res.parent, user, fs.opts.skipPermChecks) {
		return tferr.AccessDeniedError(path)
	}

	parent := res.parent.Ino
	name := res.lastComp

	if fs.opts.skipNameCollisionChecks {
		return fs.putNewEntry(parent, name, typeTag, mode, user)
	}

	unlock := fs.locks.lock(parent, name)
	defer unlock()

	if _, lerr := fs.getEntry(parent, name); lerr == nil {
		return tferr.AlreadyExistsError(path)
	} else if !tferr.Is(lerr, tferr.NotFound) {
		return lerr.WithPath(path)
	}

	if err := fs.putNewEntry(parent, name, typeTag, mode, user); err != nil {
		return err.WithPath(path)
	}
	return nil
}

// putNewEntry allocates a fresh inode and writes its Stat, building
// mode as type_tag | (mode & 0777) per spec.md §4.7.
func (fs *Filesystem) putNewEntry(parent Ino, name string, typeTag, mode uint32, user User) *tferr.Error {
	ts := now().UnixNano()
	stat := (&Stat{
		Ino:        fs.root.allocate(),
		FileSize:   0,
		FileMode:   typeTag | (mode & 0o777),
		UID:        user.UID,
		GID:        user.GID,
		ModifyTime: ts,
		ChangeTime: ts,
	}).finalize()

	if err := fs.store.Put(EncodeEntryKey(parent, name), EncodeStat(stat)); err != nil {
		return tferr.IoErrorFrom(err)
	}
	if parent == RootIno {
		fs.root.touch(now())
	}
	return nil
}
