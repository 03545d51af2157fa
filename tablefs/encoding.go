package tablefs

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// hash32 is the stable, non-cryptographic hash the lookup cache and
// the striped locks key on (spec.md §4.4, §5). It is the low 32 bits
// of xxhash64, which is already present in this module's dependency
// graph as a transitive dependency of badger.
func hash32(name string) uint32 {
	return uint32(xxhash.Sum64String(name))
}

// EncodeStat serializes a Stat to its on-disk representation: a fixed
// 8-byte ino, a fixed 8-byte size, then varint-encoded mode, uid, gid,
// modify_time, and change_time (spec.md §4.2). The layout is opaque to
// everything outside this file; only round-tripping is guaranteed.
func EncodeStat(s *Stat) []byte {
	s.assertAllSet()

	buf := make([]byte, 16, 16+5*binary.MaxVarintLen64)
	binary.BigEndian.PutUint64(buf[0:8], uint64(s.Ino))
	binary.BigEndian.PutUint64(buf[8:16], s.FileSize)

	buf = binary.AppendUvarint(buf, uint64(s.FileMode))
	buf = binary.AppendUvarint(buf, uint64(s.UID))
	buf = binary.AppendUvarint(buf, uint64(s.GID))
	buf = binary.AppendVarint(buf, s.ModifyTime)
	buf = binary.AppendVarint(buf, s.ChangeTime)
	return buf
}

// DecodeStat parses the encoding produced by EncodeStat.
func DecodeStat(data []byte) (*Stat, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("tablefs: stat record too short: %d bytes", len(data))
	}

	s := &Stat{
		Ino:      Ino(binary.BigEndian.Uint64(data[0:8])),
		FileSize: binary.BigEndian.Uint64(data[8:16]),
	}
	rest := data[16:]

	mode, n := binary.Uvarint(rest)
	if n <= 0 {
		return nil, fmt.Errorf("tablefs: stat record: bad mode varint")
	}
	rest = rest[n:]
	s.FileMode = uint32(mode)

	uid, n := binary.Uvarint(rest)
	if n <= 0 {
		return nil, fmt.Errorf("tablefs: stat record: bad uid varint")
	}
	rest = rest[n:]
	s.UID = uint32(uid)

	gid, n := binary.Uvarint(rest)
	if n <= 0 {
		return nil, fmt.Errorf("tablefs: stat record: bad gid varint")
	}
	rest = rest[n:]
	s.GID = uint32(gid)

	mtime, n := binary.Varint(rest)
	if n <= 0 {
		return nil, fmt.Errorf("tablefs: stat record: bad mtime varint")
	}
	rest = rest[n:]
	s.ModifyTime = mtime

	ctime, n := binary.Varint(rest)
	if n <= 0 {
		return nil, fmt.Errorf("tablefs: stat record: bad ctime varint")
	}
	s.ChangeTime = ctime

	return s.finalize(), nil
}

// EncodeRoot serializes the superblock: the root Stat's encoding
// followed by a varint next-inode counter (spec.md §3, §4.2).
func EncodeRoot(root *Stat, nextIno uint64) []byte {
	buf := EncodeStat(root)
	return binary.AppendUvarint(buf, nextIno)
}

// DecodeRoot is the inverse of EncodeRoot. It has no way to know where
// the Stat encoding ends on its own, so it skips the fixed-width prefix
// and walks the varints itself to find the boundary, then defers the
// actual decoding of that prefix to DecodeStat.
func DecodeRoot(data []byte) (root *Stat, nextIno uint64, err error) {
	if len(data) < 16 {
		return nil, 0, fmt.Errorf("tablefs: root record too short: %d bytes", len(data))
	}

	// Walk the same five varints DecodeStat does to find where the
	// Stat encoding ends, then hand the whole prefix to DecodeStat.
	rest := data[16:]
	consumed := 16
	for i := 0; i < 5; i++ {
		var n int
		if i < 3 {
			_, n = binary.Uvarint(rest)
		} else {
			_, n = binary.Varint(rest)
		}
		if n <= 0 {
			return nil, 0, fmt.Errorf("tablefs: root record: truncated stat encoding")
		}
		rest = rest[n:]
		consumed += n
	}

	root, err = DecodeStat(data[:consumed])
	if err != nil {
		return nil, 0, err
	}

	next, n := binary.Uvarint(data[consumed:])
	if n <= 0 {
		return nil, 0, fmt.Errorf("tablefs: root record: bad next-inode varint")
	}
	return root, next, nil
}
