package hierarchy

import (
	"errors"
	"testing"
)

func TestParseTypeExpr(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"int", "int"},
		{"lang.String", "lang.String"},
		{"util.Map<K,V>", "util.Map<K, V>"},
		{" util.List< util.List<E>[] > [] ", "util.List<util.List<E>[]>[]"},
		{"byte[][]", "byte[][]"},
	}
	for _, tc := range cases {
		got, err := parseTypeExpr(tc.in)
		if err != nil {
			t.Fatalf("parseTypeExpr(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("parseTypeExpr(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseTypeExprErrors(t *testing.T) {
	for _, in := range []string{"", "util.", "List<", "List<>", "int[", "a b", "1x", "Map<K,,V>"} {
		_, err := parseTypeExpr(in)
		if err == nil {
			t.Fatalf("parseTypeExpr(%q): expected error", in)
		}
		var ee *exprError
		if !errors.As(err, &ee) || ee.Col < 1 {
			t.Fatalf("parseTypeExpr(%q): expected column, got %v", in, err)
		}
	}
}

func TestParseTypeParam(t *testing.T) {
	name, bound, err := parseTypeParam("E extends lang.Comparable<E>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "E" || bound == nil || bound.String() != "lang.Comparable<E>" {
		t.Fatalf("got %q %v", name, bound)
	}
	name, bound, err = parseTypeParam("T")
	if err != nil || name != "T" || bound != nil {
		t.Fatalf("plain param: %q %v %v", name, bound, err)
	}
	if _, _, err := parseTypeParam("T extends"); err == nil {
		t.Fatalf("expected error for missing bound")
	}
	if _, _, err := parseTypeParam("a.T"); err == nil {
		t.Fatalf("expected error for qualified param")
	}
}
