package tablefs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdlfs/tablefs/kv/memory"
	"github.com/pdlfs/tablefs/tferr"
)

func newTestFS(t *testing.T, options ...Option) *Filesystem {
	t.Helper()
	store := memory.New()
	fs, err := Open(store, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

var root = User{UID: 0, GID: 0}

func TestOpenFreshImageHasRootDirectory(t *testing.T) {
	fs := newTestFS(t)

	stat, err := fs.Lstat(root, nil, "/")
	require.Nil(t, err)
	require.Equal(t, RootIno, stat.Ino)
	require.True(t, IsDir(stat.FileMode))
}

func TestMkdirThenLstat(t *testing.T) {
	fs := newTestFS(t)

	require.Nil(t, fs.Mkdir(root, nil, "/a", 0o755))
	stat, err := fs.Lstat(root, nil, "/a")
	require.Nil(t, err)
	require.True(t, IsDir(stat.FileMode))
	require.Equal(t, uint32(0o755), Perm(stat.FileMode)&0o777)
}

func TestMkdirAlreadyExists(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkdir(root, nil, "/a", 0o755))

	err := fs.Mkdir(root, nil, "/a", 0o755)
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.AlreadyExists))
}

func TestMkdirOfRootIsAlreadyExists(t *testing.T) {
	fs := newTestFS(t)
	err := fs.Mkdir(root, nil, "/", 0o755)
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.AlreadyExists))
}

func TestConcurrentMkdirSameTargetExactlyOneSucceeds(t *testing.T) {
	fs := newTestFS(t)
	const n = 32

	var wg sync.WaitGroup
	errs := make([]*tferr.Error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fs.Mkdir(root, nil, "/race", 0o755)
		}(i)
	}
	wg.Wait()

	oks, alreadyExists := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			oks++
		case tferr.Is(err, tferr.AlreadyExists):
			alreadyExists++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, oks)
	require.Equal(t, n-1, alreadyExists)
}

func TestConcurrentMkfileSameTargetExactlyOneSucceeds(t *testing.T) {
	fs := newTestFS(t)
	const n = 32

	var wg sync.WaitGroup
	errs := make([]*tferr.Error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fs.Mkfile(root, nil, "/race", 0o644)
		}(i)
	}
	wg.Wait()

	oks, alreadyExists := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			oks++
		case tferr.Is(err, tferr.AlreadyExists):
			alreadyExists++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, oks)
	require.Equal(t, n-1, alreadyExists)
}

func TestMkfileTrailingSlashIsFileExpected(t *testing.T) {
	fs := newTestFS(t)
	err := fs.Mkfile(root, nil, "/f/", 0o644)
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.FileExpected))
}

func TestNestedMkdirAndLstat(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkdir(root, nil, "/a", 0o755))
	require.Nil(t, fs.Mkdir(root, nil, "/a/b", 0o755))

	stat, err := fs.Lstat(root, nil, "/a/b")
	require.Nil(t, err)
	require.True(t, IsDir(stat.FileMode))
}

func TestLstatNormalizesRepeatedSlashes(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkdir(root, nil, "/1", 0o755))
	require.Nil(t, fs.Mkdir(root, nil, "/1/a", 0o755))

	want, err := fs.Lstat(root, nil, "/1/a")
	require.Nil(t, err)

	for _, path := range []string{"//1/a", "/1//a", "///1///a///"} {
		got, err := fs.Lstat(root, nil, path)
		require.Nil(t, err, "path %q", path)
		require.Equal(t, want.Ino, got.Ino, "path %q", path)
	}
}

func TestLstatMissingIntermediateReportsFailingPrefix(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkdir(root, nil, "/1", 0o755))
	require.Nil(t, fs.Mkdir(root, nil, "/1/2", 0o755))
	// /1/2/4 does not exist; /1/2/4/5 must fail resolving "4", with the
	// error localized to the prefix "/1/2" (everything successfully
	// resolved before the failing segment).
	_, err := fs.Lstat(root, nil, "/1/2/4/5")
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.NotFound))
	require.Equal(t, "/1/2", err.Path)
}

func TestLstatThroughNonDirectoryIsDirExpected(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkfile(root, nil, "/f", 0o644))
	_, err := fs.Lstat(root, nil, "/f/g")
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.DirExpected))
}

func TestUnlinkRemovesFile(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkfile(root, nil, "/f", 0o644))
	require.Nil(t, fs.Unlink(root, "/f"))

	_, err := fs.Lstat(root, nil, "/f")
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.NotFound))
}

func TestUnlinkDirectoryIsFileExpected(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkdir(root, nil, "/d", 0o755))
	err := fs.Unlink(root, "/d")
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.FileExpected))
}

func TestRmdirRequiresEmpty(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkdir(root, nil, "/d", 0o755))
	require.Nil(t, fs.Mkfile(root, nil, "/d/f", 0o644))

	err := fs.Rmdir(root, "/d")
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.DirNotEmpty))

	require.Nil(t, fs.Unlink(root, "/d/f"))
	require.Nil(t, fs.Rmdir(root, "/d"))

	_, lerr := fs.Lstat(root, nil, "/d")
	require.NotNil(t, lerr)
	require.True(t, tferr.Is(lerr, tferr.NotFound))
}

func TestRmdirOfRootIsAssertionFailed(t *testing.T) {
	fs := newTestFS(t)
	err := fs.Rmdir(root, "/")
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.AssertionFailed))
}

func TestRmdirOnFileIsDirExpected(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkfile(root, nil, "/f", 0o644))
	err := fs.Rmdir(root, "/f")
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.DirExpected))
}

func TestOpendirReaddirListsAllEntries(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkdir(root, nil, "/1", 0o755))
	require.Nil(t, fs.Mkfile(root, nil, "/2", 0o644))
	require.Nil(t, fs.Mkdir(root, nil, "/3", 0o755))

	dir, err := fs.Opendir(root, nil, "/")
	require.Nil(t, err)
	defer dir.Closedir()

	seen := map[string]bool{}
	for {
		entry, rerr := dir.Readdir()
		if rerr != nil {
			require.True(t, tferr.Is(rerr, tferr.NotFound))
			break
		}
		seen[entry.Name] = IsDir(entry.Stat.FileMode)
	}

	require.Equal(t, map[string]bool{"1": true, "2": false, "3": true}, seen)
}

func TestOpendirOnFileIsDirExpected(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkfile(root, nil, "/f", 0o644))
	_, err := fs.Opendir(root, nil, "/f")
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.DirExpected))
}

func TestPermissionDeniedOnUnreadableParent(t *testing.T) {
	fs := newTestFS(t)
	require.Nil(t, fs.Mkdir(root, nil, "/d", 0o000))

	nonOwner := User{UID: 42, GID: 42}
	err := fs.Mkfile(nonOwner, nil, "/d/f", 0o644)
	require.NotNil(t, err)
	require.True(t, tferr.Is(err, tferr.AccessDenied))
}

func TestSkipPermChecksBypassesDenial(t *testing.T) {
	fs := newTestFS(t, WithSkipPermChecks(true))
	require.Nil(t, fs.Mkdir(root, nil, "/d", 0o000))

	nonOwner := User{UID: 42, GID: 42}
	require.Nil(t, fs.Mkfile(nonOwner, nil, "/d/f", 0o644))
}

func TestSkipNameCollisionChecksOverwritesSilently(t *testing.T) {
	fs := newTestFS(t, WithSkipNameCollisionChecks(true))
	require.Nil(t, fs.Mkdir(root, nil, "/a", 0o755))
	// With the collision check skipped, a second create for the same
	// name does not report AlreadyExists — it just writes a fresh entry.
	require.Nil(t, fs.Mkdir(root, nil, "/a", 0o700))

	stat, err := fs.Lstat(root, nil, "/a")
	require.Nil(t, err)
	require.Equal(t, uint32(0o700), Perm(stat.FileMode)&0o777)
}

func TestSkipDeletionChecksAllowsNonEmptyRmdir(t *testing.T) {
	fs := newTestFS(t, WithSkipDeletionChecks(true))
	require.Nil(t, fs.Mkdir(root, nil, "/d", 0o755))
	require.Nil(t, fs.Mkfile(root, nil, "/d/f", 0o644))

	require.Nil(t, fs.Rmdir(root, "/d"))
}

func TestCloseIsIdempotent(t *testing.T) {
	store := memory.New()
	fs, err := Open(store)
	require.NoError(t, err)
	require.NoError(t, fs.Close())
	require.NoError(t, fs.Close())
}

func TestOperationsAfterCloseFail(t *testing.T) {
	store := memory.New()
	fs, err := Open(store)
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	_, lerr := fs.Lstat(root, nil, "/")
	require.NotNil(t, lerr)
	require.True(t, tferr.Is(lerr, tferr.IoError))
}

func TestRootPersistsAcrossReopen(t *testing.T) {
	store := memory.New()
	fs, err := Open(store)
	require.NoError(t, err)
	require.Nil(t, fs.Mkdir(root, nil, "/a", 0o755))
	require.NoError(t, fs.Close())

	fs2, err := Open(store)
	require.NoError(t, err)
	defer fs2.Close()

	stat, lerr := fs2.Lstat(root, nil, "/a")
	require.Nil(t, lerr)
	require.True(t, IsDir(stat.FileMode))
}
