package document

import "testing"

func TestNewNodeIdUnique(t *testing.T) {
	seen := make(map[NodeId]bool)
	for i := 0; i < 1000; i++ {
		id := NewNodeId()
		if seen[id] {
			t.Fatalf("duplicate NodeId generated: %s", id)
		}
		seen[id] = true
		if len(id) == 0 {
			t.Fatal("expected non-empty NodeId")
		}
	}
}
