package document

import (
	"fmt"

	"github.com/docforge/docforge/derrors"
)

// Subtree is a deep, id-preserving snapshot of a node and its
// descendants. RemoveNodeStep's inverse needs one so it can restore the
// exact node graph that existed before removal, not just a same-shaped
// replacement with fresh ids.
type Subtree struct {
	node     *Node
	children []*Subtree
}

// Snapshot captures id as a Subtree.
func (t *Tree) Snapshot(id NodeId) (*Subtree, error) {
	node, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	children := make([]*Subtree, 0, len(node.Children))
	for _, c := range node.Children {
		sub, err := t.Snapshot(c)
		if err != nil {
			return nil, err
		}
		children = append(children, sub)
	}
	return &Subtree{node: node.clone(), children: children}, nil
}

// RootID returns the id of the snapshot's top node.
func (s *Subtree) RootID() NodeId { return s.node.ID }

// RootType returns the type of the snapshot's top node.
func (s *Subtree) RootType() string { return s.node.Type }

// InsertSubtree reattaches a previously captured Subtree under parentID at
// position, preserving every node id, attribute set, mark set, and child
// order it had when it was snapshotted. Used exclusively to implement
// RemoveNodeStep's inverse — ordinary insertion always mints a fresh id
// via Tree.Insert.
func (t *Tree) InsertSubtree(parentID NodeId, position int, sub *Subtree) (*Tree, error) {
	parent, err := t.Get(parentID)
	if err != nil {
		return nil, err
	}
	if position < 0 || position > len(parent.Children) {
		return nil, derrors.E("document.insert_subtree", derrors.InvariantViolation,
			fmt.Errorf("position %d out of range for %d children", position, len(parent.Children)))
	}

	siblingTypes, err := t.childTypes(parent.Children)
	if err != nil {
		return nil, err
	}
	withInsert := make([]string, 0, len(siblingTypes)+1)
	withInsert = append(withInsert, siblingTypes[:position]...)
	withInsert = append(withInsert, sub.node.Type)
	withInsert = append(withInsert, siblingTypes[position:]...)
	if err := t.schema.ValidateChildren(parent.Type, withInsert); err != nil {
		return nil, err
	}

	nodes := t.nodes
	parents := t.parents
	nodes, parents = restoreSubtree(nodes, parents, sub)

	updatedParent := parent.clone()
	updatedParent.Children = insertAt(updatedParent.Children, position, sub.node.ID)
	nodes = nodes.set(parentID, updatedParent)
	parents = parents.set(sub.node.ID, parentID)

	return t.withState(nodes, parents), nil
}

func restoreSubtree(nodes *nodeMap, parents *parentMap, sub *Subtree) (*nodeMap, *parentMap) {
	nodes = nodes.set(sub.node.ID, sub.node.clone())
	for _, child := range sub.children {
		parents = parents.set(child.node.ID, sub.node.ID)
		nodes, parents = restoreSubtree(nodes, parents, child)
	}
	return nodes, parents
}
