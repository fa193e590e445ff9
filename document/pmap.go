package document

// nodeMap is a persistent, immutable map from NodeId to *Node. Writes
// return a new nodeMap and never mutate the receiver, so any Tree
// holding a reference to one is safe to keep around after a later Tree
// derives from it.
//
// This is deliberately the simplest correct implementation: a full copy
// of the underlying Go map on every write. A proper hash-array-mapped
// trie would share structure between versions and amortize writes to
// O(log n), but it is also far easier to get subtly wrong — and with no
// ability to run the Go toolchain while building this, correctness
// confidence outweighs the performance a trie would buy at the document
// sizes this package is meant for (thousands, not millions, of nodes).
type nodeMap struct {
	m map[NodeId]*Node
}

func newNodeMap() *nodeMap {
	return &nodeMap{m: make(map[NodeId]*Node)}
}

func (n *nodeMap) get(id NodeId) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n.m[id]
	return v, ok
}

func (n *nodeMap) len() int {
	if n == nil {
		return 0
	}
	return len(n.m)
}

func (n *nodeMap) set(id NodeId, node *Node) *nodeMap {
	clone := make(map[NodeId]*Node, n.len()+1)
	if n != nil {
		for k, v := range n.m {
			clone[k] = v
		}
	}
	clone[id] = node
	return &nodeMap{m: clone}
}

func (n *nodeMap) delete(id NodeId) *nodeMap {
	if n == nil {
		return n
	}
	if _, ok := n.m[id]; !ok {
		return n
	}
	clone := make(map[NodeId]*Node, len(n.m)-1)
	for k, v := range n.m {
		if k != id {
			clone[k] = v
		}
	}
	return &nodeMap{m: clone}
}

// parentMap is a persistent map from NodeId to its parent NodeId. The
// root has no entry.
type parentMap struct {
	m map[NodeId]NodeId
}

func newParentMap() *parentMap {
	return &parentMap{m: make(map[NodeId]NodeId)}
}

func (p *parentMap) get(id NodeId) (NodeId, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.m[id]
	return v, ok
}

func (p *parentMap) set(id, parent NodeId) *parentMap {
	clone := make(map[NodeId]NodeId, len(p.m)+1)
	if p != nil {
		for k, v := range p.m {
			clone[k] = v
		}
	}
	clone[id] = parent
	return &parentMap{m: clone}
}

func (p *parentMap) delete(id NodeId) *parentMap {
	if p == nil {
		return p
	}
	clone := make(map[NodeId]NodeId, len(p.m))
	for k, v := range p.m {
		if k != id {
			clone[k] = v
		}
	}
	return &parentMap{m: clone}
}
