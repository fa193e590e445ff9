// Package schema implements the document schema of SPEC_FULL.md §4.1: node
// and mark type registries, attribute coercion against JSON Schema
// validators, and content validation compiled into a term-sequence
// automaton.
//
// Grounded on core/types/schema.go's DecoratorSchema/ParamSchema registry
// and its SchemaBuilder fluent construction style.
package schema

import (
	"fmt"

	"github.com/docforge/docforge/derrors"
)

// NodeType is one entry of the schema's node type registry.
type NodeType struct {
	Name    string
	Attrs   map[string]AttrSpec
	Content ContentSpec
	Marks   MarkRule
	// Leaf tags a text-like node type (e.g. "text"). No validation reads
	// it: a leaf is kept childless only by an empty content spec.
	Leaf bool
}

// Builder assembles a Schema from node and mark type definitions. Building
// happens once at startup; the resulting Schema is immutable and safe for
// concurrent use by readers.
type Builder struct {
	nodeTypes map[string]NodeType
	markTypes map[string]MarkType
	err       error
}

// NewBuilder starts an empty schema builder.
func NewBuilder() *Builder {
	return &Builder{
		nodeTypes: make(map[string]NodeType),
		markTypes: make(map[string]MarkType),
	}
}

// NodeType registers a node type. It returns the builder for chaining.
func (b *Builder) NodeType(nt NodeType) *Builder {
	if b.err != nil {
		return b
	}
	if nt.Name == "" {
		b.err = fmt.Errorf("node type: name must not be empty")
		return b
	}
	if _, dup := b.nodeTypes[nt.Name]; dup {
		b.err = fmt.Errorf("node type %q: registered twice", nt.Name)
		return b
	}
	b.nodeTypes[nt.Name] = nt
	return b
}

// MarkType registers a mark type. It returns the builder for chaining.
func (b *Builder) MarkType(mt MarkType) *Builder {
	if b.err != nil {
		return b
	}
	if mt.Name == "" {
		b.err = fmt.Errorf("mark type: name must not be empty")
		return b
	}
	if _, dup := b.markTypes[mt.Name]; dup {
		b.err = fmt.Errorf("mark type %q: registered twice", mt.Name)
		return b
	}
	b.markTypes[mt.Name] = mt
	return b
}

// Build validates cross-references (mark rules referencing registered mark
// types) and returns the finished Schema.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	for name, nt := range b.nodeTypes {
		if nt.Marks.Allowed != nil {
			for markName := range nt.Marks.Allowed {
				if _, ok := b.markTypes[markName]; !ok {
					return nil, fmt.Errorf("node type %q: mark rule references unknown mark type %q", name, markName)
				}
			}
		}
	}
	return &Schema{
		nodeTypes: b.nodeTypes,
		markTypes: b.markTypes,
	}, nil
}

// Schema is an immutable, validated registry of node and mark types.
type Schema struct {
	nodeTypes map[string]NodeType
	markTypes map[string]MarkType
}

// NodeType looks up a registered node type by name.
func (s *Schema) NodeType(name string) (NodeType, error) {
	nt, ok := s.nodeTypes[name]
	if !ok {
		return NodeType{}, derrors.E("schema.node_type", derrors.NotFound,
			fmt.Errorf("unknown node type %q", name))
	}
	return nt, nil
}

// MarkType looks up a registered mark type by name.
func (s *Schema) MarkType(name string) (MarkType, error) {
	mt, ok := s.markTypes[name]
	if !ok {
		return MarkType{}, derrors.E("schema.mark_type", derrors.NotFound,
			fmt.Errorf("unknown mark type %q", name))
	}
	return mt, nil
}

// ValidateChildren runs parentType's content automaton over a full child
// type sequence in a single pass, per §4.1.
func (s *Schema) ValidateChildren(parentType string, childTypes []string) error {
	nt, err := s.NodeType(parentType)
	if err != nil {
		return err
	}
	return nt.Content.ValidateContent(parentType, childTypes)
}

// ValidateNode checks that inserting a child of childType at position
// among existingSiblings would leave parentType's content spec satisfied.
func (s *Schema) ValidateNode(parentType, childType string, position int, existingSiblings []string) error {
	if _, err := s.NodeType(childType); err != nil {
		return err
	}
	if position < 0 || position > len(existingSiblings) {
		return derrors.E("schema.validate_node", derrors.SchemaViolation,
			fmt.Errorf("position %d out of range for %d existing siblings", position, len(existingSiblings)))
	}
	withInsert := make([]string, 0, len(existingSiblings)+1)
	withInsert = append(withInsert, existingSiblings[:position]...)
	withInsert = append(withInsert, childType)
	withInsert = append(withInsert, existingSiblings[position:]...)
	return s.ValidateChildren(parentType, withInsert)
}

// CoerceAttrs applies defaults, drops unknown keys, and validates
// attributes for a node or mark type's attribute spec set.
func (s *Schema) CoerceAttrs(typeName string, raw map[string]any) (map[string]any, []string, error) {
	nt, nodeErr := s.NodeType(typeName)
	if nodeErr == nil {
		return coerceAttrs(typeName, nt.Attrs, raw)
	}
	mt, markErr := s.MarkType(typeName)
	if markErr == nil {
		return coerceAttrs(typeName, mt.Attrs, raw)
	}
	return nil, nil, derrors.E("schema.coerce_attrs", derrors.NotFound,
		fmt.Errorf("unknown node or mark type %q", typeName))
}

// AllowMark reports whether nodeType may carry a mark of type markType.
func (s *Schema) AllowMark(nodeType, markType string) bool {
	nt, err := s.NodeType(nodeType)
	if err != nil {
		return false
	}
	if _, err := s.MarkType(markType); err != nil {
		return false
	}
	return nt.Marks.allows(markType)
}

// MarkAllowsMultiple reports whether markType permits more than one
// instance of itself on the same node. Unknown mark types report false,
// matching AllowMark's fail-closed behavior.
func (s *Schema) MarkAllowsMultiple(markType string) bool {
	mt, err := s.MarkType(markType)
	if err != nil {
		return false
	}
	return mt.Multiple
}
