// Package leveldb implements kv.Store on top of goleveldb, the ordered
// LSM engine used by the go-s3fs example in this pack's retrieval set.
// It exists alongside the badger backend to exercise the fact that
// TableFS's core is generic over any ordered KV engine (spec design
// note: "virtual KV adaptors become a capability interface").
package leveldb

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/pdlfs/tablefs/kv"
)

// Store adapts a goleveldb handle to kv.Store.
type Store struct {
	db *leveldb.DB
}

// Options controls how Open configures the underlying LevelDB instance.
type Options struct {
	// ReadOnly opens the database read-only; writes fail.
	ReadOnly bool
}

// Open opens (creating if absent, unless ReadOnly) a LevelDB image at path.
func Open(path string, opts Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get implements kv.Store.
func (s *Store) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Put implements kv.Store.
func (s *Store) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

// Delete implements kv.Store.
func (s *Store) Delete(key []byte) error {
	has, err := s.db.Has(key, nil)
	if err != nil {
		return err
	}
	if !has {
		return kv.ErrNotFound
	}
	return s.db.Delete(key, nil)
}

// ScanFrom implements kv.Store.
func (s *Store) ScanFrom(prefix []byte) kv.Cursor {
	iter := s.db.NewIterator(&util.Range{Start: prefix}, nil)
	return &cursor{iter: iter}
}

// Flush implements kv.Store. goleveldb writes with the default write
// options are synced to the OS immediately; there is no explicit flush
// call in its API, so this compacts the range to force segments to
// disk, matching how LevelDB users typically request durability.
func (s *Store) Flush() error {
	return s.db.CompactRange(util.Range{})
}

// Close implements kv.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

type cursor struct {
	iter iterator
	err  error
}

// iterator is the subset of leveldb's Iterator this package uses.
type iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

func (c *cursor) Next() bool {
	if c.err != nil {
		return false
	}
	ok := c.iter.Next()
	if !ok {
		c.err = c.iter.Error()
	}
	return ok
}

func (c *cursor) Key() []byte   { return c.iter.Key() }
func (c *cursor) Value() []byte { return c.iter.Value() }
func (c *cursor) Err() error    { return c.err }

func (c *cursor) Close() error {
	c.iter.Release()
	return nil
}

var _ kv.Store = (*Store)(nil)
