// Package transform implements the transactional editing session of
// SPEC_FULL.md §4.4: a Transform accumulates steps against a lazy Draft,
// with per-step atomicity (a failing step leaves the Transform exactly as
// it was before the call) and batch atomicity (apply_steps_batch is
// all-or-nothing).
//
// Grounded on core/transform/transform.go's staged-pipeline shape,
// generalized from AST-to-IR command transformation to document tree
// editing, and tested in its style (testify).
package transform

import (
	"fmt"

	"github.com/docforge/docforge/document"
	"github.com/docforge/docforge/step"
)

// Transform is a single editing session over a Document. It is not safe
// for concurrent use — SPEC_FULL.md §5 scopes a Transform to one owning
// goroutine at a time, same as a single-writer recordlog.
type Transform struct {
	schemaDoc *document.Document
	draft     *Draft
	applied   []step.Step
	inverses  []step.Step
}

// New starts a Transform from doc. The returned Transform shares doc's
// tree until the first successful Step call.
func New(doc *document.Document) *Transform {
	return &Transform{
		schemaDoc: doc,
		draft:     newDraft(doc.Tree),
	}
}

// Step applies s to the current draft. On failure the Transform is left
// completely unchanged — the failed step is not recorded and the draft
// keeps its prior tree.
func (tr *Transform) Step(s step.Step) error {
	next, inverse, err := s.Apply(tr.draft.Tree())
	if err != nil {
		return err
	}
	tr.draft = tr.draft.advance(next)
	tr.applied = append(tr.applied, s)
	tr.inverses = append(tr.inverses, inverse)
	return nil
}

// ApplyStepsBatch applies steps in order. If any step fails, the entire
// batch is rolled back: the Transform ends up exactly as it was before
// the call, and the error identifies which step (by index) failed.
func (tr *Transform) ApplyStepsBatch(steps []step.Step) error {
	checkpointDraft := tr.draft
	checkpointApplied := len(tr.applied)

	for i, s := range steps {
		if err := tr.Step(s); err != nil {
			tr.draft = checkpointDraft
			tr.applied = tr.applied[:checkpointApplied]
			tr.inverses = tr.inverses[:checkpointApplied]
			return fmt.Errorf("transform: batch step %d (%s): %w", i, s.Name(), err)
		}
	}
	return nil
}

// Doc returns the Document reflecting every step applied so far.
func (tr *Transform) Doc() *document.Document {
	return tr.schemaDoc.WithTree(tr.draft.Tree())
}

// DocChanged reports whether any step has been successfully applied.
func (tr *Transform) DocChanged() bool {
	return tr.draft.owned()
}

// Commit returns the final Document and the ordered list of steps that
// produced it, for appending to a record log.
func (tr *Transform) Commit() (*document.Document, []step.Step) {
	return tr.Doc(), append([]step.Step(nil), tr.applied...)
}

// Rollback discards every applied step and returns the Transform to its
// starting Document.
func (tr *Transform) Rollback() *document.Document {
	tr.draft = newDraft(tr.schemaDoc.Tree)
	tr.applied = nil
	tr.inverses = nil
	return tr.schemaDoc
}

// Inverses returns the inverse of every applied step, in application
// order (reverse-applying them in reverse order undoes the Transform).
func (tr *Transform) Inverses() []step.Step {
	return append([]step.Step(nil), tr.inverses...)
}
