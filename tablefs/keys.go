package tablefs

import (
	"bytes"
	"encoding/binary"
)

// hasPrefix reports whether key starts with prefix, used to bound scans
// that only guarantee results are >= the requested prefix.
func hasPrefix(key, prefix []byte) bool {
	return len(key) >= len(prefix) && bytes.Equal(key[:len(prefix)], prefix)
}

// rootKey is the single well-known key ("/") the root record lives at,
// per spec.md §3/§4.3.
var rootKey = []byte("/")

// EncodeEntryKey composes the ordered KV key for a directory entry:
// the parent inode as an 8-byte big-endian prefix followed by the
// literal name bytes (the NAME_IN_KEY scheme, spec.md §4.2). Big-endian
// is required, not just conventional: it is what makes unsigned
// integer byte-lexical order agree with numeric parent order, so a
// prefix scan of one parent's range never straddles another's.
func EncodeEntryKey(parent Ino, name string) []byte {
	key := make([]byte, 8+len(name))
	binary.BigEndian.PutUint64(key[:8], uint64(parent))
	copy(key[8:], name)
	return key
}

// entryKeyPrefix returns the key prefix that bounds every entry whose
// parent is ino — readdir and the emptiness check for Rmdir both scan
// from this prefix.
func entryKeyPrefix(parent Ino) []byte {
	prefix := make([]byte, 8)
	binary.BigEndian.PutUint64(prefix, uint64(parent))
	return prefix
}

// entryNameFromKey extracts the name suffix from an entry key known to
// have the given parent's prefix.
func entryNameFromKey(key []byte) string {
	if len(key) <= 8 {
		return ""
	}
	return string(key[8:])
}

// EncodeCacheKey composes the lookup cache's key: the parent inode
// followed by a 32-bit hash of the name (spec.md §4.4). This key is
// never written to the KV store — only entry keys are.
func EncodeCacheKey(parent Ino, name string) [12]byte {
	var key [12]byte
	binary.BigEndian.PutUint64(key[:8], uint64(parent))
	binary.BigEndian.PutUint32(key[8:], hash32(name))
	return key
}
