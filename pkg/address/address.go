// Package address derives stable record identifiers from their owning keys.
//
// Every record that must exist at most once per owner (a campaign per creator
// and title, an investment per campaign and investor, a vault per campaign) is
// stored under a UUIDv5 computed from a kind prefix and its seeds, so a second
// insert of the same logical record collides on the primary key.
package address

import (
	"bytes"

	"github.com/google/uuid"
)

// Namespace is the UUIDv5 namespace for all derived identifiers.
var Namespace = uuid.MustParse("6f1d1c52-6c1e-4d0b-9a43-5b8f1f0e7a21")

// Derive returns the identifier for kind and seeds. Seeds are length
// prefixed so ("ab","c") and ("a","bc") never collide.
func Derive(kind string, seeds ...[]byte) uuid.UUID {
	var buf bytes.Buffer
	buf.WriteString(kind)
	for _, seed := range seeds {
		buf.WriteByte(0)
		writeUvarint(&buf, uint64(len(seed)))
		buf.Write(seed)
	}
	return uuid.NewSHA1(Namespace, buf.Bytes())
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	for v >= 0x80 {
		buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	buf.WriteByte(byte(v))
}
