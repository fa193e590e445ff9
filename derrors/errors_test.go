package derrors

import (
	"errors"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	base := errors.New("missing")
	err := E("tree.get", NotFound, base)

	if !Is(err, NotFound) {
		t.Fatal("expected NotFound kind")
	}
	if Is(err, Corrupt) {
		t.Fatal("did not expect Corrupt kind")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected unwrap to reach base error")
	}
}

func TestKindOfOther(t *testing.T) {
	if KindOf(errors.New("plain")) != Other {
		t.Fatal("expected Other for a plain error")
	}
}
