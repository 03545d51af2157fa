package tablefs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func dirStat(mode uint32, uid, gid uint32) *Stat {
	return (&Stat{
		Ino:      1,
		FileMode: uint32(TypeDirectory) | mode,
		UID:      uid,
		GID:      gid,
	}).finalize()
}

func TestClassBitsShortCircuitsOwnerGroupOther(t *testing.T) {
	dir := dirStat(0o750, 100, 200)

	// Owner match: uses owner bits (7) even though group/other differ.
	require.Equal(t, uint32(0o7), classBits(dir, User{UID: 100, GID: 999}))
	// Group match (uid differs): uses group bits (5), never OR'd with owner.
	require.Equal(t, uint32(0o5), classBits(dir, User{UID: 999, GID: 200}))
	// Neither matches: other bits (0).
	require.Equal(t, uint32(0o0), classBits(dir, User{UID: 999, GID: 999}))
}

func TestClassBitsOwnerTakesPriorityOverGroup(t *testing.T) {
	// uid matches AND gid matches: owner bits win, not an OR of both classes.
	dir := dirStat(0o470, 100, 200)
	require.Equal(t, uint32(0o4), classBits(dir, User{UID: 100, GID: 200}))
}

func TestPermittedRootBypass(t *testing.T) {
	dir := dirStat(0o000, 100, 100)
	require.True(t, permitted(dir, User{UID: 0, GID: 0}, permExecute, false))
}

func TestPermittedSkipChecksBypass(t *testing.T) {
	dir := dirStat(0o000, 100, 100)
	require.True(t, permitted(dir, User{UID: 999, GID: 999}, permExecute, true))
}

func TestPermittedDeniesWithoutMatchingBit(t *testing.T) {
	dir := dirStat(0o644, 1, 1)
	require.False(t, isDirWriteOK(dir, User{UID: 2, GID: 2}, false))
	require.True(t, isDirReadOK(dir, User{UID: 2, GID: 2}, false))
}

func TestIsLookupOKRequiresExecuteBit(t *testing.T) {
	dir := dirStat(0o644, 1, 1)
	require.False(t, isLookupOK(dir, User{UID: 1, GID: 1}, false))

	execDir := dirStat(0o744, 1, 1)
	require.True(t, isLookupOK(execDir, User{UID: 1, GID: 1}, false))
}
