package tablefs

// User identifies the caller of a metadata operation for permission
// checking purposes (spec.md §4.5). UID 0 always bypasses permission
// checks, matching standard POSIX root semantics.
type User struct {
	UID uint32
	GID uint32
}

func (u User) isRoot() bool {
	return u.UID == 0
}
