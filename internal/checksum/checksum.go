// Package checksum computes digests used as HTTP entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// ETag returns a quoted strong entity tag over parts. Parts are
// length-prefixed, so ("ab","c") and ("a","bc") differ.
func ETag(parts ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return `"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`
}
