package document

import (
	"testing"

	"github.com/docforge/docforge/derrors"
	"github.com/docforge/docforge/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	docContent, err := schema.ParseContentExpr("paragraph*")
	if err != nil {
		t.Fatalf("doc content: %v", err)
	}
	paraContent, err := schema.ParseContentExpr("text*")
	if err != nil {
		t.Fatalf("paragraph content: %v", err)
	}

	s, err := schema.NewBuilder().
		MarkType(schema.MarkType{Name: "bold"}).
		NodeType(schema.NodeType{Name: "doc", Content: docContent, Marks: schema.NoMarks()}).
		NodeType(schema.NodeType{Name: "paragraph", Content: paraContent, Marks: schema.NoMarks()}).
		NodeType(schema.NodeType{Name: "text", Marks: schema.AllowMarks("bold"), Leaf: true}).
		Build()
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return s
}

func TestTreeInsertAndGet(t *testing.T) {
	s := testSchema(t)
	tree, err := NewTree(s, "doc", nil)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}

	tree2, paraID, err := tree.Insert(tree.Root(), 0, "paragraph", nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := tree.Get(paraID); err == nil {
		t.Fatal("expected original tree to be unaffected by insert")
	}
	node, err := tree2.Get(paraID)
	if err != nil {
		t.Fatalf("get inserted node: %v", err)
	}
	if node.Type != "paragraph" {
		t.Fatalf("expected paragraph type, got %q", node.Type)
	}

	root, err := tree2.Get(tree2.Root())
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	if len(root.Children) != 1 || root.Children[0] != paraID {
		t.Fatalf("expected root to have one paragraph child, got %v", root.Children)
	}
}

func TestTreeInsertRejectsSchemaViolation(t *testing.T) {
	s := testSchema(t)
	tree, err := NewTree(s, "doc", nil)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	if _, _, err := tree.Insert(tree.Root(), 0, "text", nil); err == nil {
		t.Fatal("expected schema violation inserting text directly under doc")
	} else if !derrors.Is(err, derrors.SchemaViolation) {
		t.Fatalf("expected SchemaViolation, got %v", derrors.KindOf(err))
	}
}

func TestTreeRemoveDeletesSubtree(t *testing.T) {
	s := testSchema(t)
	tree, err := NewTree(s, "doc", nil)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	tree, paraID, err := tree.Insert(tree.Root(), 0, "paragraph", nil)
	if err != nil {
		t.Fatalf("insert paragraph: %v", err)
	}
	tree, textID, err := tree.Insert(paraID, 0, "text", nil)
	if err != nil {
		t.Fatalf("insert text: %v", err)
	}

	tree, err = tree.Remove(paraID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := tree.Get(paraID); err == nil {
		t.Fatal("expected paragraph to be gone")
	}
	if _, err := tree.Get(textID); err == nil {
		t.Fatal("expected nested text to be gone with its parent")
	}
}

func TestTreeRemoveRootRejected(t *testing.T) {
	s := testSchema(t)
	tree, err := NewTree(s, "doc", nil)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	if _, err := tree.Remove(tree.Root()); err == nil {
		t.Fatal("expected error removing root")
	}
}

func TestTreeMoveBetweenParents(t *testing.T) {
	s := testSchema(t)
	tree, err := NewTree(s, "doc", nil)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	tree, para1, err := tree.Insert(tree.Root(), 0, "paragraph", nil)
	if err != nil {
		t.Fatalf("insert para1: %v", err)
	}
	tree, para2, err := tree.Insert(tree.Root(), 1, "paragraph", nil)
	if err != nil {
		t.Fatalf("insert para2: %v", err)
	}
	tree, textID, err := tree.Insert(para1, 0, "text", nil)
	if err != nil {
		t.Fatalf("insert text: %v", err)
	}

	tree, err = tree.Move(textID, para2, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	p1, err := tree.Get(para1)
	if err != nil {
		t.Fatalf("get para1: %v", err)
	}
	if len(p1.Children) != 0 {
		t.Fatalf("expected para1 to have no children, got %v", p1.Children)
	}
	p2, err := tree.Get(para2)
	if err != nil {
		t.Fatalf("get para2: %v", err)
	}
	if len(p2.Children) != 1 || p2.Children[0] != textID {
		t.Fatalf("expected para2 to contain moved text, got %v", p2.Children)
	}
}

func TestTreeMoveRejectsCycle(t *testing.T) {
	s := testSchema(t)
	tree, err := NewTree(s, "doc", nil)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	tree, para, err := tree.Insert(tree.Root(), 0, "paragraph", nil)
	if err != nil {
		t.Fatalf("insert paragraph: %v", err)
	}
	tree, textID, err := tree.Insert(para, 0, "text", nil)
	if err != nil {
		t.Fatalf("insert text: %v", err)
	}
	if _, err := tree.Move(para, textID, 0); err == nil {
		t.Fatal("expected error moving paragraph into its own descendant")
	}
}

func TestTreeAddAndRemoveMark(t *testing.T) {
	s := testSchema(t)
	tree, err := NewTree(s, "doc", nil)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	tree, para, err := tree.Insert(tree.Root(), 0, "paragraph", nil)
	if err != nil {
		t.Fatalf("insert paragraph: %v", err)
	}
	tree, textID, err := tree.Insert(para, 0, "text", nil)
	if err != nil {
		t.Fatalf("insert text: %v", err)
	}

	tree, err = tree.AddMark(textID, "bold", nil)
	if err != nil {
		t.Fatalf("add mark: %v", err)
	}
	node, err := tree.Get(textID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(node.Marks) != 1 || node.Marks[0].Type != "bold" {
		t.Fatalf("expected bold mark, got %v", node.Marks)
	}

	tree, err = tree.RemoveMark(textID, "bold")
	if err != nil {
		t.Fatalf("remove mark: %v", err)
	}
	node, err = tree.Get(textID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(node.Marks) != 0 {
		t.Fatalf("expected no marks, got %v", node.Marks)
	}
}

func TestTreeAddMarkRejectsDisallowed(t *testing.T) {
	s := testSchema(t)
	tree, err := NewTree(s, "doc", nil)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	tree, para, err := tree.Insert(tree.Root(), 0, "paragraph", nil)
	if err != nil {
		t.Fatalf("insert paragraph: %v", err)
	}
	if _, err := tree.AddMark(para, "bold", nil); err == nil {
		t.Fatal("expected error: paragraph does not allow marks")
	}
}
