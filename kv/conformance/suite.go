// Package conformance runs one behavioral test suite against any
// kv.Store implementation, the way the teacher's metadata store
// backends (badger, memory, postgres) each run the same conformance
// test file against their own implementation of MetadataStore.
package conformance

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdlfs/tablefs/kv"
)

// Run exercises the full kv.Store contract against store. Callers pass
// a fresh, empty store; Run does not clean up after itself.
func Run(t *testing.T, store kv.Store) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, store) })
	t.Run("PutGetRoundTrip", func(t *testing.T) { testPutGetRoundTrip(t, store) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, store) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, store) })
	t.Run("DeleteThenGet", func(t *testing.T) { testDeleteThenGet(t, store) })
	t.Run("ScanOrder", func(t *testing.T) { testScanOrder(t, store) })
	t.Run("ScanPrefixBoundary", func(t *testing.T) { testScanPrefixBoundary(t, store) })
	t.Run("Flush", func(t *testing.T) { require.NoError(t, store.Flush()) })
}

func testGetMissing(t *testing.T, s kv.Store) {
	_, err := s.Get([]byte("conformance/missing"))
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func testPutGetRoundTrip(t *testing.T, s kv.Store) {
	key, val := []byte("conformance/a"), []byte("hello")
	require.NoError(t, s.Put(key, val))

	got, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, bytes.Equal(got, val))
}

func testOverwrite(t *testing.T, s kv.Store) {
	key := []byte("conformance/overwrite")
	require.NoError(t, s.Put(key, []byte("first")))
	require.NoError(t, s.Put(key, []byte("second")))

	got, err := s.Get(key)
	require.NoError(t, err)
	require.Equal(t, "second", string(got))
}

func testDeleteMissing(t *testing.T, s kv.Store) {
	err := s.Delete([]byte("conformance/never-existed"))
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func testDeleteThenGet(t *testing.T, s kv.Store) {
	key := []byte("conformance/to-delete")
	require.NoError(t, s.Put(key, []byte("x")))
	require.NoError(t, s.Delete(key))

	_, err := s.Get(key)
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func testScanOrder(t *testing.T, s kv.Store) {
	prefix := []byte("conformance/scan/")
	names := []string{"c", "a", "b"}
	for _, n := range names {
		require.NoError(t, s.Put(append(append([]byte(nil), prefix...), n...), []byte(n)))
	}

	c := s.ScanFrom(prefix)
	defer c.Close()

	var got []string
	for c.Next() {
		key := c.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		got = append(got, string(c.Value()))
	}
	require.NoError(t, c.Err())
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func testScanPrefixBoundary(t *testing.T, s kv.Store) {
	require.NoError(t, s.Put([]byte("conformance/zzz"), []byte("outside")))
	require.NoError(t, s.Put([]byte("conformance/zz/1"), []byte("inside")))

	c := s.ScanFrom([]byte("conformance/zz/"))
	defer c.Close()

	require.True(t, c.Next())
	require.Equal(t, "conformance/zz/1", string(c.Key()))
	require.False(t, c.Next() && bytes.HasPrefix(c.Key(), []byte("conformance/zz/")))
}
