package schema

// MarkRule controls which mark types a node type may carry. A node type
// either allows any mark ("_"), no marks ("-"), or an explicit allow-list.
type MarkRule struct {
	Any     bool
	None    bool
	Allowed map[string]bool
}

// AnyMarks builds a MarkRule that allows every registered mark type.
func AnyMarks() MarkRule { return MarkRule{Any: true} }

// NoMarks builds a MarkRule that forbids all marks.
func NoMarks() MarkRule { return MarkRule{None: true} }

// AllowMarks builds a MarkRule that allows exactly the named mark types.
func AllowMarks(names ...string) MarkRule {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	return MarkRule{Allowed: allowed}
}

func (r MarkRule) allows(markType string) bool {
	if r.None {
		return false
	}
	if r.Any {
		return true
	}
	return r.Allowed[markType]
}

// MarkType is a mark's schema entry: its name and its attribute specs.
// Marks don't carry content specs or mark rules of their own — they are
// leaves attached to a node's mark set. Multiple permits more than one
// mark of this type on the same node (e.g. overlapping comment
// threads); duplicates of any other mark type are forbidden.
type MarkType struct {
	Name     string
	Attrs    map[string]AttrSpec
	Multiple bool
}
