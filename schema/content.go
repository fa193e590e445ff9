package schema

import (
	"fmt"
	"strings"

	"github.com/docforge/docforge/derrors"
)

// ContentTerm is one term of a node type's content expression: a set of
// alternative child type names repeated between Min and Max times in
// sequence. Max of -1 means unbounded ("+" or "*").
type ContentTerm struct {
	Types []string
	Min   int
	Max   int // -1 = unbounded
}

func (t ContentTerm) allows(typeName string) bool {
	for _, n := range t.Types {
		if n == typeName {
			return true
		}
	}
	return false
}

// ContentSpec is the compiled content expression for a node type: an
// ordered sequence of terms, matched against a child type sequence in a
// single left-to-right pass. This is the "regex-like automaton" of
// SPEC_FULL.md §4.1: each term behaves like a quantified character class in
// a regular expression over the alphabet of node type names.
type ContentSpec struct {
	terms []ContentTerm
}

// NewContentSpec compiles a sequence of terms into a ContentSpec.
func NewContentSpec(terms ...ContentTerm) (ContentSpec, error) {
	for i, t := range terms {
		if t.Min < 0 {
			return ContentSpec{}, fmt.Errorf("content term %d: min must be >= 0", i)
		}
		if t.Max != -1 && t.Max < t.Min {
			return ContentSpec{}, fmt.Errorf("content term %d: max must be >= min or -1", i)
		}
		if len(t.Types) == 0 {
			return ContentSpec{}, fmt.Errorf("content term %d: must allow at least one type", i)
		}
	}
	return ContentSpec{terms: append([]ContentTerm(nil), terms...)}, nil
}

// ParseContentExpr parses a human-readable content expression such as
// "heading block*" or "paragraph+ image?" into a ContentSpec. Each word is a
// single type name, a group name for an alternation written as
// "(a|b|c)", optionally suffixed with +, *, or ?.
func ParseContentExpr(expr string) (ContentSpec, error) {
	fields := strings.Fields(expr)
	terms := make([]ContentTerm, 0, len(fields))
	for _, f := range fields {
		term, err := parseContentTerm(f)
		if err != nil {
			return ContentSpec{}, fmt.Errorf("parse content expr %q: %w", expr, err)
		}
		terms = append(terms, term)
	}
	return NewContentSpec(terms...)
}

func parseContentTerm(field string) (ContentTerm, error) {
	min, max := 1, 1
	body := field
	if n := len(field); n > 0 {
		switch field[n-1] {
		case '+':
			min, max = 1, -1
			body = field[:n-1]
		case '*':
			min, max = 0, -1
			body = field[:n-1]
		case '?':
			min, max = 0, 1
			body = field[:n-1]
		}
	}
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "(") && strings.HasSuffix(body, ")") {
		body = body[1 : len(body)-1]
	}
	if body == "" {
		return ContentTerm{}, fmt.Errorf("empty type name in %q", field)
	}
	types := strings.Split(body, "|")
	for i := range types {
		types[i] = strings.TrimSpace(types[i])
		if types[i] == "" {
			return ContentTerm{}, fmt.Errorf("empty alternative in %q", field)
		}
	}
	return ContentTerm{Types: types, Min: min, Max: max}, nil
}

// Match validates a sequence of child type names against the spec in a
// single pass. On failure it reports the index of the offending child
// (or len(children) if the sequence ended too early to satisfy a
// required term).
func (s ContentSpec) Match(children []string) (ok bool, violationIndex int) {
	ok, idx := matchTerms(s.terms, children, 0)
	if ok {
		return true, -1
	}
	return false, idx
}

// matchTerms tries to match terms[ti:] against children[ci:], returning the
// furthest index reached on failure so callers can report a useful
// violation position. Implemented as plain (unmemoized) backtracking: term counts are
// small in practice (single-digit term lists), so this stays well within
// budget without requiring an explicit subset-construction DFA.
func matchTerms(terms []ContentTerm, children []string, ci int) (bool, int) {
	if len(terms) == 0 {
		if ci == len(children) {
			return true, -1
		}
		return false, ci
	}

	term := terms[0]
	rest := terms[1:]
	furthest := ci

	// Try consuming as many repetitions as allowed, longest first so that
	// greedy matches (the common case for "+"/"*") succeed without
	// excessive backtracking.
	maxRepeat := term.Max
	count := 0
	j := ci
	for maxRepeat == -1 || count < maxRepeat {
		if j >= len(children) || !term.allows(children[j]) {
			break
		}
		j++
		count++
	}

	for tryCount := count; tryCount >= term.Min; tryCount-- {
		consumedTo := ci + tryCount
		ok, failAt := matchTerms(rest, children, consumedTo)
		if ok {
			return true, -1
		}
		if failAt > furthest {
			furthest = failAt
		}
	}
	return false, furthest
}

// ValidateContent runs Match and translates a failure into a *derrors.Error
// carrying the Corrupt-adjacent SchemaViolation kind, as required by §4.1's
// failure mode.
func (s ContentSpec) ValidateContent(parentType string, children []string) error {
	ok, idx := s.Match(children)
	if ok {
		return nil
	}
	return derrors.E("schema.validate_content", derrors.SchemaViolation,
		fmt.Errorf("node type %q: content rejected at child index %d", parentType, idx))
}
