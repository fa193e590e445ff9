package document

// Mark is an inline annotation attached to a node (bold, a link, a
// comment reference). Marks have a type name and their own attribute
// set, validated against the mark type's AttrSpec at add time.
type Mark struct {
	Type  string
	Attrs map[string]any
}

// Node is one element of the document tree. Text is a field for literal
// text content; no Tree operation sets it, so it stays empty. Whether a
// node may have Children is decided by its type's content spec alone.
type Node struct {
	ID       NodeId
	Type     string
	Attrs    map[string]any
	Marks    []Mark
	Children []NodeId
	Text     string
}

func (n *Node) clone() *Node {
	cp := *n
	cp.Attrs = cloneAttrs(n.Attrs)
	cp.Marks = append([]Mark(nil), n.Marks...)
	cp.Children = append([]NodeId(nil), n.Children...)
	return &cp
}

func cloneAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	cp := make(map[string]any, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return cp
}

func (n *Node) markIndex(markType string) int {
	for i, m := range n.Marks {
		if m.Type == markType {
			return i
		}
	}
	return -1
}

func childIndex(children []NodeId, id NodeId) int {
	for i, c := range children {
		if c == id {
			return i
		}
	}
	return -1
}
