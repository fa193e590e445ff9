package document

import "github.com/docforge/docforge/schema"

// Document pairs a Tree with the schema it was validated against. It is
// the unit a transform operates on.
type Document struct {
	Schema *schema.Schema
	Tree   *Tree
}

// New creates a Document with a fresh root node of rootType.
func New(s *schema.Schema, rootType string, rootAttrs map[string]any) (*Document, error) {
	tree, err := NewTree(s, rootType, rootAttrs)
	if err != nil {
		return nil, err
	}
	return &Document{Schema: s, Tree: tree}, nil
}

// WithTree returns a Document sharing this one's schema but backed by a
// different tree snapshot, used after applying steps.
func (d *Document) WithTree(t *Tree) *Document {
	return &Document{Schema: d.Schema, Tree: t}
}
