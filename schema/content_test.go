package schema

import (
	"testing"

	"github.com/docforge/docforge/derrors"
)

func TestContentSpecMatch(t *testing.T) {
	spec, err := ParseContentExpr("heading paragraph+ image?")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cases := []struct {
		name     string
		children []string
		wantOK   bool
		wantIdx  int
	}{
		{"minimal", []string{"heading", "paragraph"}, true, -1},
		{"with image", []string{"heading", "paragraph", "paragraph", "image"}, true, -1},
		{"missing heading", []string{"paragraph"}, false, 0},
		{"missing paragraph", []string{"heading"}, false, 1},
		{"trailing junk", []string{"heading", "paragraph", "table"}, false, 2},
		{"two images", []string{"heading", "paragraph", "image", "image"}, false, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, idx := spec.Match(tc.children)
			if ok != tc.wantOK {
				t.Fatalf("Match(%v) ok = %v, want %v", tc.children, ok, tc.wantOK)
			}
			if !ok && idx != tc.wantIdx {
				t.Fatalf("Match(%v) violation index = %d, want %d", tc.children, idx, tc.wantIdx)
			}
		})
	}
}

func TestContentSpecAlternation(t *testing.T) {
	spec, err := ParseContentExpr("(paragraph|image)*")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ok, _ := spec.Match([]string{"paragraph", "image", "paragraph"}); !ok {
		t.Fatal("expected alternation to accept mixed sequence")
	}
	if ok, idx := spec.Match([]string{"paragraph", "table"}); ok || idx != 1 {
		t.Fatalf("expected rejection at index 1, got ok=%v idx=%d", ok, idx)
	}
}

func TestParseContentExprRejectsEmpty(t *testing.T) {
	if _, err := ParseContentExpr("()"); err == nil {
		t.Fatal("expected error for empty group")
	}
}

func TestValidateContentWrapsSchemaViolation(t *testing.T) {
	spec, err := ParseContentExpr("paragraph+")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = spec.ValidateContent("doc", nil)
	if err == nil {
		t.Fatal("expected error for empty children")
	}
	if !derrors.Is(err, derrors.SchemaViolation) {
		t.Fatalf("expected SchemaViolation kind, got %v", derrors.KindOf(err))
	}
}
