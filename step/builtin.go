package step

import "github.com/docforge/docforge/document"

// AddNodeStep inserts a new node of NodeType under ParentID at Position.
type AddNodeStep struct {
	ParentID document.NodeId `cbor:"parent_id"`
	Position int             `cbor:"position"`
	NodeType string          `cbor:"node_type"`
	Attrs    map[string]any  `cbor:"attrs"`
}

func (s *AddNodeStep) Name() string { return "add_node" }

func (s *AddNodeStep) Apply(t *document.Tree) (*document.Tree, Step, error) {
	next, newID, err := t.Insert(s.ParentID, s.Position, s.NodeType, s.Attrs)
	if err != nil {
		return nil, nil, err
	}
	return next, &RemoveNodeStep{NodeID: newID}, nil
}

// RemoveNodeStep deletes NodeID and its entire subtree. Its inverse
// restores the exact subtree (ids, attrs, marks, and children included)
// via document.Tree.Snapshot/InsertSubtree, not a same-shaped replacement.
type RemoveNodeStep struct {
	NodeID document.NodeId `cbor:"node_id"`
}

func (s *RemoveNodeStep) Name() string { return "remove_node" }

func (s *RemoveNodeStep) Apply(t *document.Tree) (*document.Tree, Step, error) {
	parentID, _, err := t.ParentOf(s.NodeID)
	if err != nil {
		return nil, nil, err
	}
	siblings, err := t.ChildrenOf(parentID)
	if err != nil {
		return nil, nil, err
	}
	position := indexOf(siblings, s.NodeID)

	snapshot, err := t.Snapshot(s.NodeID)
	if err != nil {
		return nil, nil, err
	}

	next, err := t.Remove(s.NodeID)
	if err != nil {
		return nil, nil, err
	}
	return next, &restoreSubtreeStep{parentID: parentID, position: position, snapshot: snapshot}, nil
}

// restoreSubtreeStep is RemoveNodeStep's inverse. It is not registered
// with the factory registry because it carries a live *document.Subtree
// rather than wire-representable fields, so it cannot be rebuilt from
// serialized bytes.
type restoreSubtreeStep struct {
	parentID document.NodeId
	position int
	snapshot *document.Subtree
}

func (s *restoreSubtreeStep) Name() string { return "restore_subtree" }

func (s *restoreSubtreeStep) Apply(t *document.Tree) (*document.Tree, Step, error) {
	next, err := t.InsertSubtree(s.parentID, s.position, s.snapshot)
	if err != nil {
		return nil, nil, err
	}
	return next, &RemoveNodeStep{NodeID: s.snapshot.RootID()}, nil
}

// MoveNodeStep relocates NodeID to be a child of NewParentID at Position.
type MoveNodeStep struct {
	NodeID      document.NodeId `cbor:"node_id"`
	NewParentID document.NodeId `cbor:"new_parent_id"`
	Position    int             `cbor:"position"`
}

func (s *MoveNodeStep) Name() string { return "move_node" }

func (s *MoveNodeStep) Apply(t *document.Tree) (*document.Tree, Step, error) {
	oldParentID, _, err := t.ParentOf(s.NodeID)
	if err != nil {
		return nil, nil, err
	}
	oldSiblings, err := t.ChildrenOf(oldParentID)
	if err != nil {
		return nil, nil, err
	}
	oldPosition := indexOf(oldSiblings, s.NodeID)

	next, err := t.Move(s.NodeID, s.NewParentID, s.Position)
	if err != nil {
		return nil, nil, err
	}
	inverse := &MoveNodeStep{NodeID: s.NodeID, NewParentID: oldParentID, Position: oldPosition}
	return next, inverse, nil
}

// SetAttrsStep merges Attrs onto NodeID's existing attributes; keys not
// in Attrs keep their current values.
type SetAttrsStep struct {
	NodeID document.NodeId `cbor:"node_id"`
	Attrs  map[string]any  `cbor:"attrs"`
}

func (s *SetAttrsStep) Name() string { return "set_attrs" }

func (s *SetAttrsStep) Apply(t *document.Tree) (*document.Tree, Step, error) {
	node, err := t.Get(s.NodeID)
	if err != nil {
		return nil, nil, err
	}
	previous := cloneMap(node.Attrs)

	next, err := t.SetAttrs(s.NodeID, s.Attrs)
	if err != nil {
		return nil, nil, err
	}
	return next, &SetAttrsStep{NodeID: s.NodeID, Attrs: previous}, nil
}

// AddMarkStep attaches (or replaces) a mark of MarkType on NodeID.
type AddMarkStep struct {
	NodeID   document.NodeId `cbor:"node_id"`
	MarkType string          `cbor:"mark_type"`
	Attrs    map[string]any  `cbor:"attrs"`
}

func (s *AddMarkStep) Name() string { return "add_mark" }

func (s *AddMarkStep) Apply(t *document.Tree) (*document.Tree, Step, error) {
	node, err := t.Get(s.NodeID)
	if err != nil {
		return nil, nil, err
	}
	hadMark, previousAttrs := findMark(node.Marks, s.MarkType)

	next, err := t.AddMark(s.NodeID, s.MarkType, s.Attrs)
	if err != nil {
		return nil, nil, err
	}

	if hadMark {
		return next, &AddMarkStep{NodeID: s.NodeID, MarkType: s.MarkType, Attrs: previousAttrs}, nil
	}
	return next, &RemoveMarkStep{NodeID: s.NodeID, MarkType: s.MarkType}, nil
}

// RemoveMarkStep detaches the mark of MarkType from NodeID.
type RemoveMarkStep struct {
	NodeID   document.NodeId `cbor:"node_id"`
	MarkType string          `cbor:"mark_type"`
}

func (s *RemoveMarkStep) Name() string { return "remove_mark" }

func (s *RemoveMarkStep) Apply(t *document.Tree) (*document.Tree, Step, error) {
	node, err := t.Get(s.NodeID)
	if err != nil {
		return nil, nil, err
	}
	hadMark, previousAttrs := findMark(node.Marks, s.MarkType)

	next, err := t.RemoveMark(s.NodeID, s.MarkType)
	if err != nil {
		return nil, nil, err
	}
	if !hadMark {
		return next, &RemoveMarkStep{NodeID: s.NodeID, MarkType: s.MarkType}, nil
	}
	return next, &AddMarkStep{NodeID: s.NodeID, MarkType: s.MarkType, Attrs: previousAttrs}, nil
}

func indexOf(ids []document.NodeId, target document.NodeId) int {
	for i, id := range ids {
		if id == target {
			return i
		}
	}
	return -1
}

func findMark(marks []document.Mark, markType string) (bool, map[string]any) {
	for _, m := range marks {
		if m.Type == markType {
			return true, cloneMap(m.Attrs)
		}
	}
	return false, nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
