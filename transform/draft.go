package transform

import "github.com/docforge/docforge/document"

// draftState distinguishes a Draft that still points at its originating
// document's tree (Shared — no copying has happened, reading is free)
// from one that has diverged because at least one step has been applied
// (Owned — it now holds its own tree value). document.Tree operations
// already return a fresh persistent value per mutation, so the lazy part
// of "lazy clone-on-write" here is temporal rather than structural: a
// Draft that nothing ever steps through never pays for a single copy.
type draftState int

const (
	stateShared draftState = iota
	stateOwned
)

// Draft holds the tree a Transform is building up, stepwise, from an
// original Document.
type Draft struct {
	state draftState
	tree  *document.Tree
}

func newDraft(original *document.Tree) *Draft {
	return &Draft{state: stateShared, tree: original}
}

// Tree returns the draft's current tree.
func (d *Draft) Tree() *document.Tree { return d.tree }

// owned reports whether any step has mutated this draft away from the
// tree it started from.
func (d *Draft) owned() bool { return d.state == stateOwned }

// advance replaces the draft's tree with next, marking it Owned.
func (d *Draft) advance(next *document.Tree) *Draft {
	return &Draft{state: stateOwned, tree: next}
}
