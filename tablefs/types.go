// Package tablefs implements the metadata path of a POSIX-like
// filesystem whose entire namespace is stored as records in an ordered
// key-value store (kv.Store). It resolves paths, encodes inodes and
// directory entries into KV records, and enforces POSIX-style
// permission and existence checks around insert/delete mutations. File
// content is out of scope: tablefs stores metadata only.
package tablefs

import "fmt"

// Ino is a filesystem-unique inode number. Ino 0 is permanently
// reserved for the root directory; every other inode is allocated
// once, monotonically, and never reused within an image's lifetime.
type Ino uint64

// RootIno is the well-known inode number of the root directory.
const RootIno Ino = 0

// FileType is the POSIX type tag carried in the high bits of Mode.
type FileType uint32

const (
	// TypeRegular marks a regular file (S_IFREG).
	TypeRegular FileType = 0o100000
	// TypeDirectory marks a directory (S_IFDIR).
	TypeDirectory FileType = 0o040000

	typeMask = 0o170000
	permMask = 0o007777
)

// Type extracts the type tag from a full mode word.
func Type(mode uint32) FileType {
	return FileType(mode & typeMask)
}

// Perm extracts the permission bits (including setuid/setgid/sticky)
// from a full mode word.
func Perm(mode uint32) uint32 {
	return mode & permMask
}

// IsDir reports whether mode names a directory.
func IsDir(mode uint32) bool {
	return Type(mode) == TypeDirectory
}

// IsRegular reports whether mode names a regular file.
func IsRegular(mode uint32) bool {
	return Type(mode) == TypeRegular
}

// Stat carries every attribute stored for a filesystem entry: the
// inode number, size, POSIX mode (type + permission bits), owning
// (uid, gid), and the two POSIX timestamps this filesystem tracks.
// tablefs never maintains file content, so there is no atime — access
// does not mutate metadata records, only modify_time and change_time do.
type Stat struct {
	Ino        Ino
	FileSize   uint64
	FileMode   uint32
	UID        uint32
	GID        uint32
	ModifyTime int64 // unix nanoseconds
	ChangeTime int64 // unix nanoseconds

	set bool // internal: true once finalize has been called
}

// finalize marks a Stat as fully populated. Every constructor in this
// package calls it before the Stat is ever written to the store. It
// does not inspect the individual fields: a field left out of the
// literal before finalize is persisted as its zero value.
func (s *Stat) finalize() *Stat {
	s.set = true
	return s
}

// assertAllSet panics if s was never finalized. This is a programmer
// error check, not a runtime one: every path that builds a Stat inside
// this package goes through finalize, so tripping this means new code
// forgot to.
func (s *Stat) assertAllSet() {
	if !s.set {
		panic(fmt.Sprintf("tablefs: Stat for ino %d written without finalize()", s.Ino))
	}
}
