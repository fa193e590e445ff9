// Package step implements the invertible step algebra of SPEC_FULL.md
// §4.3 (AddNode/RemoveNode/MoveNode/SetAttrs/AddMark/RemoveMark) and the
// step factory registry of §4.8 that lets a recordlog reader deserialize
// steps by name without a compile-time type switch.
//
// Grounded on core/decorators/registry.go's name-keyed, collision-checked
// registry, and core/planfmt/canonical.go's canonical CBOR encoding for
// the wire format.
package step

import "github.com/docforge/docforge/document"

// Step is a single reversible edit to a document tree. Apply returns the
// tree after the edit together with this step's inverse — the inverse
// must be computed from the edit's actual effect (e.g. AddNode's inverse
// needs the id the tree assigned the new node), so it cannot be derived
// from the step's fields alone ahead of time.
type Step interface {
	// Name is the wire name used by the step factory registry, and the
	// discriminator stored alongside the serialized payload.
	Name() string
	Apply(t *document.Tree) (next *document.Tree, inverse Step, err error)
}
