package transform_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docforge/docforge/document"
	"github.com/docforge/docforge/schema"
	"github.com/docforge/docforge/step"
	"github.com/docforge/docforge/transform"
)

// TestScenarioAttributeRoundTrip mirrors spec.md §8 scenario 1: a
// paragraph schema with a defaulted color attr, set it to red, commit,
// then apply the recorded inverse and see black again.
func TestScenarioAttributeRoundTrip(t *testing.T) {
	colorSchema := []byte(`{"type": "string"}`)
	colorAttr, err := schema.CompileAttrSpec("color", "black", false, json.RawMessage(colorSchema))
	require.NoError(t, err)

	s, err := schema.NewBuilder().
		NodeType(schema.NodeType{
			Name:  "paragraph",
			Marks: schema.NoMarks(),
			Attrs: map[string]schema.AttrSpec{"color": colorAttr},
		}).
		Build()
	require.NoError(t, err)

	doc, err := document.New(s, "paragraph", nil)
	require.NoError(t, err)

	root, err := doc.Tree.Get(doc.Tree.Root())
	require.NoError(t, err)
	require.Equal(t, "black", root.Attrs["color"])

	tr := transform.New(doc)
	require.NoError(t, tr.Step(&step.SetAttrsStep{NodeID: doc.Tree.Root(), Attrs: map[string]any{"color": "red"}}))

	committed, steps := tr.Commit()
	require.Len(t, steps, 1)
	committedRoot, err := committed.Tree.Get(committed.Tree.Root())
	require.NoError(t, err)
	require.Equal(t, "red", committedRoot.Attrs["color"])

	inverse := tr.Inverses()[0]
	reverted, _, err := inverse.Apply(committed.Tree)
	require.NoError(t, err)
	revertedRoot, err := reverted.Get(reverted.Root())
	require.NoError(t, err)
	require.Equal(t, "black", revertedRoot.Attrs["color"])
}

// TestScenarioBatchAtomicity mirrors spec.md §8 scenario 2: starting
// from root → [a, b], a batch that moves a and then removes a
// nonexistent node must fail with NotFound and leave the tree
// unchanged.
func TestScenarioBatchAtomicity(t *testing.T) {
	content, err := schema.ParseContentExpr("leaf*")
	require.NoError(t, err)
	s, err := schema.NewBuilder().
		NodeType(schema.NodeType{Name: "root", Content: content, Marks: schema.NoMarks()}).
		NodeType(schema.NodeType{Name: "leaf", Marks: schema.NoMarks(), Leaf: true}).
		Build()
	require.NoError(t, err)

	doc, err := document.New(s, "root", nil)
	require.NoError(t, err)

	rootID := doc.Tree.Root()
	tree, aID, err := doc.Tree.Insert(rootID, 0, "leaf", nil)
	require.NoError(t, err)
	tree, bID, err := tree.Insert(rootID, 1, "leaf", nil)
	require.NoError(t, err)
	doc = doc.WithTree(tree)

	tr := transform.New(doc)
	batch := []step.Step{
		&step.MoveNodeStep{NodeID: aID, NewParentID: rootID, Position: 1},
		&step.RemoveNodeStep{NodeID: "does-not-exist"},
	}
	err = tr.ApplyStepsBatch(batch)
	require.Error(t, err)
	require.False(t, tr.DocChanged())

	committed, steps := tr.Commit()
	require.Empty(t, steps)
	children, err := committed.Tree.ChildrenOf(rootID)
	require.NoError(t, err)
	require.Equal(t, []document.NodeId{aID, bID}, children)
}
