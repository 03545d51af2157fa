package tablefs

// Permission bit positions within a POSIX mode word's owner class;
// group and other classes are the same bits shifted right by 3 and 6.
const (
	permRead    = 0o4
	permWrite   = 0o2
	permExecute = 0o1
)

// classBits returns the 3-bit rwx pattern of dir's mode that applies to
// user, using the first-matching-class short-circuit spec.md §4.5 and
// §9 require: owner bits if the uid matches, else group bits if the
// gid matches, else other bits. Classes are never OR'd together.
func classBits(dir *Stat, user User) uint32 {
	mode := dir.FileMode
	switch {
	case user.UID == dir.UID:
		return (mode >> 6) & 0o7
	case user.GID == dir.GID:
		return (mode >> 3) & 0o7
	default:
		return mode & 0o7
	}
}

// permitted evaluates whether user holds bit against dir, honoring the
// skip_perm_checks option and the uid==0 (root) bypass (spec.md §4.5).
func permitted(dir *Stat, user User, bit uint32, skipPermChecks bool) bool {
	if skipPermChecks || user.isRoot() {
		return true
	}
	return classBits(dir, user)&bit != 0
}

// isLookupOK requires the execute bit on dir for user — traversing a
// directory as an interior path component.
func isLookupOK(dir *Stat, user User, skipPermChecks bool) bool {
	return permitted(dir, user, permExecute, skipPermChecks)
}

// isDirReadOK requires the read bit on dir for user — listing its entries.
func isDirReadOK(dir *Stat, user User, skipPermChecks bool) bool {
	return permitted(dir, user, permRead, skipPermChecks)
}

// isDirWriteOK requires the write bit on dir for user — creating or
// removing an entry within it.
func isDirWriteOK(dir *Stat, user User, skipPermChecks bool) bool {
	return permitted(dir, user, permWrite, skipPermChecks)
}
