// Package badger implements kv.Store on top of BadgerDB, the same
// embedded ordered LSM-tree engine the teacher codebase uses for its
// default on-disk metadata store (pkg/metadata/store/badger).
package badger

import (
	"errors"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/pdlfs/tablefs/kv"
)

// Store adapts a BadgerDB handle to kv.Store. Every method is a thin
// wrapper around a single Badger transaction — no business logic lives
// here, matching the teacher's own "CRUD operations, no business logic"
// convention for its store backends.
type Store struct {
	db *badgerdb.DB
}

// Options controls how Open configures the underlying BadgerDB instance.
type Options struct {
	// ReadOnly opens the database read-only; writes fail.
	ReadOnly bool

	// InMemory runs Badger entirely in memory (path is ignored). Useful
	// for tests that want Badger's real code path without touching disk.
	InMemory bool
}

// Open opens (creating if absent, unless ReadOnly) a BadgerDB image at path.
func Open(path string, opts Options) (*Store, error) {
	bopts := badgerdb.DefaultOptions(path).
		WithReadOnly(opts.ReadOnly).
		WithInMemory(opts.InMemory).
		WithLogger(nil)

	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get implements kv.Store.
func (s *Store) Get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return kv.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put implements kv.Store.
func (s *Store) Put(key, value []byte) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete implements kv.Store.
func (s *Store) Delete(key []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badgerdb.ErrKeyNotFound) {
			return kv.ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return err
}

// ScanFrom implements kv.Store. The cursor holds a long-running,
// read-only Badger transaction open until Close is called.
func (s *Store) ScanFrom(prefix []byte) kv.Cursor {
	txn := s.db.NewTransaction(false)
	it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
	it.Seek(prefix)
	return &cursor{txn: txn, it: it, started: false}
}

// Flush implements kv.Store by forcing Badger's value log and LSM tree
// to sync to durable storage.
func (s *Store) Flush() error {
	return s.db.Sync()
}

// Close implements kv.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

type cursor struct {
	txn     *badgerdb.Txn
	it      *badgerdb.Iterator
	started bool
	key     []byte
	value   []byte
	err     error
}

func (c *cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.started {
		c.started = true
	} else {
		c.it.Next()
	}
	if !c.it.Valid() {
		return false
	}
	item := c.it.Item()
	c.key = append(c.key[:0], item.KeyCopy(nil)...)
	val, err := item.ValueCopy(nil)
	if err != nil {
		c.err = err
		return false
	}
	c.value = val
	return true
}

func (c *cursor) Key() []byte   { return c.key }
func (c *cursor) Value() []byte { return c.value }
func (c *cursor) Err() error    { return c.err }

func (c *cursor) Close() error {
	c.it.Close()
	c.txn.Discard()
	return nil
}

var _ kv.Store = (*Store)(nil)
