package document

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
)

// NodeId uniquely identifies a node within a tree (and, for all practical
// purposes, across trees — it is generated from 16 bytes of
// crypto/rand). No UUID/ULID library appears in any complete example
// repo this module is grounded on, so NodeId uses the standard library
// directly: crypto/rand for entropy, a Crockford base32 alphabet for a
// compact, case-insensitive, no-padding textual form.
type NodeId string

var crockfordEncoding = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// NewNodeId generates a fresh, random NodeId.
func NewNodeId() NodeId {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// unavailable, which is a fatal environment problem, not a
		// recoverable one.
		panic(fmt.Sprintf("document: crypto/rand unavailable: %v", err))
	}
	return NodeId(crockfordEncoding.EncodeToString(buf[:]))
}

func (id NodeId) String() string { return string(id) }
