package document

import "testing"

func TestSnapshotAndInsertSubtreeRoundTrip(t *testing.T) {
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

	snap, err := tree.Snapshot(para)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	tree, err = tree.Remove(para)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := tree.Get(para); err == nil {
		t.Fatal("expected paragraph to be removed")
	}

	tree, err = tree.InsertSubtree(tree.Root(), 0, snap)
	if err != nil {
		t.Fatalf("insert subtree: %v", err)
	}

	restoredPara, err := tree.Get(para)
	if err != nil {
		t.Fatalf("expected paragraph restored with original id: %v", err)
	}
	if len(restoredPara.Children) != 1 || restoredPara.Children[0] != textID {
		t.Fatalf("expected restored paragraph to contain original text id, got %v", restoredPara.Children)
	}
	restoredText, err := tree.Get(textID)
	if err != nil {
		t.Fatalf("expected text restored with original id: %v", err)
	}
	if len(restoredText.Marks) != 1 || restoredText.Marks[0].Type != "bold" {
		t.Fatalf("expected restored text to keep its bold mark, got %v", restoredText.Marks)
	}
}
