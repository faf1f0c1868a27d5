package source

import "testing"

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.Intern("java.util.List")
	b := in.Intern("java.util.List")
	if a != b {
		t.Fatalf("expected the same id, got %d and %d", a, b)
	}
	if a == NoStringID {
		t.Fatalf("non-empty string must not map to NoStringID")
	}
	if got := in.MustLookup(a); got != "java.util.List" {
		t.Fatalf("lookup mismatch: %q", got)
	}
}

func TestInternerEmptyStringIsNoStringID(t *testing.T) {
	in := NewInterner()
	if id := in.Intern(""); id != NoStringID {
		t.Fatalf("expected NoStringID, got %d", id)
	}
	if in.Len() != 1 {
		t.Fatalf("expected only the sentinel entry, got %d", in.Len())
	}
	if _, ok := in.Lookup(StringID(42)); ok {
		t.Fatalf("unknown ids must not resolve")
	}
}
