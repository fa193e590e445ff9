// Package document implements the persistent, schema-validated tree model
// of SPEC_FULL.md §4.2: nodes identified by NodeId, a copy-on-write Tree
// holding a node table and a parent index, and the mutation operations
// (insert/remove/move/set_attrs/add_mark/remove_mark) that each return a
// new Tree rather than modifying the receiver.
//
// Grounded on core/decorators/registry.go's name-keyed registry shape,
// generalized from a mutex-guarded mutable map to a copy-on-write
// persistent one (see document/pmap.go and DESIGN.md's open-question
// resolution for why a full-copy map rather than a trie).
package document

import (
	"fmt"

	"github.com/docforge/docforge/derrors"
	"github.com/docforge/docforge/invariant"
	"github.com/docforge/docforge/schema"
)

// Tree is an immutable snapshot of a document's node graph. All mutation
// methods return a new *Tree and leave the receiver untouched.
type Tree struct {
	schema  *schema.Schema
	nodes   *nodeMap
	parents *parentMap
	root    NodeId
}

// NewTree creates a one-node tree with a freshly generated root id.
func NewTree(s *schema.Schema, rootType string, rootAttrs map[string]any) (*Tree, error) {
	coerced, _, err := s.CoerceAttrs(rootType, rootAttrs)
	if err != nil {
		return nil, err
	}
	root := NewNodeId()
	node := &Node{ID: root, Type: rootType, Attrs: coerced}

	if err := s.ValidateChildren(rootType, nil); err != nil {
		return nil, err
	}

	return &Tree{
		schema:  s,
		nodes:   newNodeMap().set(root, node),
		parents: newParentMap(),
		root:    root,
	}, nil
}

// Root returns the tree's root node id.
func (t *Tree) Root() NodeId { return t.root }

// Get returns the node with the given id.
func (t *Tree) Get(id NodeId) (*Node, error) {
	n, ok := t.nodes.get(id)
	if !ok {
		return nil, derrors.E("document.get", derrors.NotFound, fmt.Errorf("node %q not found", id))
	}
	return n, nil
}

// ParentOf returns the parent of id, or ok=false for the root.
func (t *Tree) ParentOf(id NodeId) (NodeId, bool, error) {
	if _, err := t.Get(id); err != nil {
		return "", false, err
	}
	parent, ok := t.parents.get(id)
	return parent, ok, nil
}

// ChildrenOf returns the ordered child ids of id.
func (t *Tree) ChildrenOf(id NodeId) ([]NodeId, error) {
	n, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	return append([]NodeId(nil), n.Children...), nil
}

func (t *Tree) childTypes(children []NodeId) ([]string, error) {
	types := make([]string, len(children))
	for i, c := range children {
		n, err := t.Get(c)
		if err != nil {
			return nil, err
		}
		types[i] = n.Type
	}
	return types, nil
}

// Insert creates a new node of nodeType under parentID at position,
// validating the parent's content spec with the new child in place. It
// returns the new tree and the inserted node's id.
func (t *Tree) Insert(parentID NodeId, position int, nodeType string, attrs map[string]any) (*Tree, NodeId, error) {
	parent, err := t.Get(parentID)
	if err != nil {
		return nil, "", err
	}
	if position < 0 || position > len(parent.Children) {
		return nil, "", derrors.E("document.insert", derrors.InvariantViolation,
			fmt.Errorf("position %d out of range for %d children", position, len(parent.Children)))
	}

	coerced, _, err := t.schema.CoerceAttrs(nodeType, attrs)
	if err != nil {
		return nil, "", err
	}

	siblingTypes, err := t.childTypes(parent.Children)
	if err != nil {
		return nil, "", err
	}
	if err := t.schema.ValidateNode(parent.Type, nodeType, position, siblingTypes); err != nil {
		return nil, "", err
	}

	newID := NewNodeId()
	newNode := &Node{ID: newID, Type: nodeType, Attrs: coerced}

	updatedParent := parent.clone()
	updatedParent.Children = insertAt(updatedParent.Children, position, newID)

	nodes := t.nodes.set(newID, newNode).set(parentID, updatedParent)
	parents := t.parents.set(newID, parentID)

	return t.withState(nodes, parents), newID, nil
}

// Remove deletes id and its entire subtree, re-validating the former
// parent's content spec without it.
func (t *Tree) Remove(id NodeId) (*Tree, error) {
	if id == t.root {
		return nil, derrors.E("document.remove", derrors.InvariantViolation, fmt.Errorf("cannot remove the root node"))
	}
	node, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	parentID, _, err := t.ParentOf(id)
	if err != nil {
		return nil, err
	}
	parent, err := t.Get(parentID)
	if err != nil {
		return nil, err
	}

	idx := childIndex(parent.Children, id)
	invariant.Invariant(idx >= 0, "document.remove: parent %q does not list child %q", parentID, id)

	remainingChildren := removeAt(parent.Children, idx)
	remainingTypes, err := t.childTypes(remainingChildren)
	if err != nil {
		return nil, err
	}
	if err := t.schema.ValidateChildren(parent.Type, remainingTypes); err != nil {
		return nil, err
	}

	nodes := t.nodes
	parents := t.parents
	for _, sub := range t.subtreeIDs(node) {
		nodes = nodes.delete(sub)
		parents = parents.delete(sub)
	}

	updatedParent := parent.clone()
	updatedParent.Children = remainingChildren
	nodes = nodes.set(parentID, updatedParent)

	return t.withState(nodes, parents), nil
}

func (t *Tree) subtreeIDs(n *Node) []NodeId {
	ids := []NodeId{n.ID}
	for _, c := range n.Children {
		child, ok := t.nodes.get(c)
		if !ok {
			continue
		}
		ids = append(ids, t.subtreeIDs(child)...)
	}
	return ids
}

// Move relocates id to be a child of newParentID at position. It rejects
// moves that would make a node its own ancestor.
func (t *Tree) Move(id NodeId, newParentID NodeId, position int) (*Tree, error) {
	if id == t.root {
		return nil, derrors.E("document.move", derrors.InvariantViolation, fmt.Errorf("cannot move the root node"))
	}
	node, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	for _, ancestorCandidate := range t.subtreeIDs(node) {
		if ancestorCandidate == newParentID {
			return nil, derrors.E("document.move", derrors.InvariantViolation,
				fmt.Errorf("cannot move %q into its own subtree", id))
		}
	}

	oldParentID, _, err := t.ParentOf(id)
	if err != nil {
		return nil, err
	}
	newParent, err := t.Get(newParentID)
	if err != nil {
		return nil, err
	}
	if position < 0 || position > len(newParent.Children) {
		return nil, derrors.E("document.move", derrors.InvariantViolation,
			fmt.Errorf("position %d out of range for %d children", position, len(newParent.Children)))
	}

	oldParent, err := t.Get(oldParentID)
	if err != nil {
		return nil, err
	}
	oldIdx := childIndex(oldParent.Children, id)
	invariant.Invariant(oldIdx >= 0, "document.move: old parent %q does not list child %q", oldParentID, id)
	remainingOldChildren := removeAt(oldParent.Children, oldIdx)

	newChildren := newParent.Children
	if oldParentID == newParentID {
		newChildren = remainingOldChildren
	}
	if position > len(newChildren) {
		position = len(newChildren)
	}
	updatedNewChildren := insertAt(newChildren, position, id)

	oldTypes, err := t.childTypes(remainingOldChildren)
	if err != nil {
		return nil, err
	}
	if oldParentID != newParentID {
		if err := t.schema.ValidateChildren(oldParent.Type, oldTypes); err != nil {
			return nil, err
		}
	}
	newTypes, err := t.childTypes(updatedNewChildren)
	if err != nil {
		return nil, err
	}
	if err := t.schema.ValidateChildren(newParent.Type, newTypes); err != nil {
		return nil, err
	}

	nodes := t.nodes
	if oldParentID == newParentID {
		updated := oldParent.clone()
		updated.Children = updatedNewChildren
		nodes = nodes.set(oldParentID, updated)
	} else {
		updatedOld := oldParent.clone()
		updatedOld.Children = remainingOldChildren
		updatedNew := newParent.clone()
		updatedNew.Children = updatedNewChildren
		nodes = nodes.set(oldParentID, updatedOld).set(newParentID, updatedNew)
	}
	parents := t.parents.set(id, newParentID)

	return t.withState(nodes, parents), nil
}

// SetAttrs merges patch onto id's current attributes, then coerces the
// result through the schema — unaffected keys keep their existing
// values rather than reverting to schema defaults.
func (t *Tree) SetAttrs(id NodeId, patch map[string]any) (*Tree, error) {
	node, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(node.Attrs)+len(patch))
	for k, v := range node.Attrs {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	coerced, _, err := t.schema.CoerceAttrs(node.Type, merged)
	if err != nil {
		return nil, err
	}
	updated := node.clone()
	updated.Attrs = coerced
	return t.withState(t.nodes.set(id, updated), t.parents), nil
}

// AddMark attaches a mark of markType on id. Mark types declared
// multiple in the schema always append, permitting several marks of
// the same type to coexist (e.g. overlapping comment ranges); other
// mark types replace any existing mark of that type, since duplicates
// are forbidden for them.
func (t *Tree) AddMark(id NodeId, markType string, attrs map[string]any) (*Tree, error) {
	node, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	if !t.schema.AllowMark(node.Type, markType) {
		return nil, derrors.E("document.add_mark", derrors.SchemaViolation,
			fmt.Errorf("node type %q does not allow mark %q", node.Type, markType))
	}
	coerced, _, err := t.schema.CoerceAttrs(markType, attrs)
	if err != nil {
		return nil, err
	}

	updated := node.clone()
	if t.schema.MarkAllowsMultiple(markType) {
		updated.Marks = append(updated.Marks, Mark{Type: markType, Attrs: coerced})
	} else if idx := updated.markIndex(markType); idx >= 0 {
		updated.Marks[idx] = Mark{Type: markType, Attrs: coerced}
	} else {
		updated.Marks = append(updated.Marks, Mark{Type: markType, Attrs: coerced})
	}
	return t.withState(t.nodes.set(id, updated), t.parents), nil
}

// RemoveMark detaches the mark of markType from id, if present.
func (t *Tree) RemoveMark(id NodeId, markType string) (*Tree, error) {
	node, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	idx := node.markIndex(markType)
	if idx < 0 {
		return t, nil
	}
	updated := node.clone()
	updated.Marks = append(updated.Marks[:idx:idx], updated.Marks[idx+1:]...)
	return t.withState(t.nodes.set(id, updated), t.parents), nil
}

func (t *Tree) withState(nodes *nodeMap, parents *parentMap) *Tree {
	return &Tree{schema: t.schema, nodes: nodes, parents: parents, root: t.root}
}

func insertAt(ids []NodeId, position int, id NodeId) []NodeId {
	out := make([]NodeId, 0, len(ids)+1)
	out = append(out, ids[:position]...)
	out = append(out, id)
	out = append(out, ids[position:]...)
	return out
}

func removeAt(ids []NodeId, idx int) []NodeId {
	out := make([]NodeId, 0, len(ids)-1)
	out = append(out, ids[:idx]...)
	out = append(out, ids[idx+1:]...)
	return out
}
