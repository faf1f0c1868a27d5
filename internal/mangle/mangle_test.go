package mangle

import (
	"testing"

	"dvgen/internal/source"
	"dvgen/internal/types"
)

func class(t *testing.T, in *types.Interner, name string) types.TypeID {
	t.Helper()
	id, ok := in.RegisterClass(in.Strings.Intern(name), source.Span{}, 0)
	if !ok {
		t.Fatalf("duplicate class %s", name)
	}
	return id
}

func TestClassSymbols(t *testing.T) {
	in := types.NewInterner()
	obj := class(t, in, "lang.Object")
	m := New(in)

	cases := []struct {
		got, want string
	}{
		{m.VectorTypeName(obj), "dv.lang.Object"},
		{m.ObjectTypeName(obj), "class.lang.Object"},
		{m.VectorGlobal(obj), "_DVN4lang6ObjectE"},
		{m.SuperTypesName(obj), "_STN4lang6ObjectE"},
		{m.StaticFieldName(obj, "class$"), "_FN4lang6ObjectE6class$"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("got %q, want %q", tc.got, tc.want)
		}
	}
	if m.VectorGlobal(in.Builtins().Int) != "" {
		t.Fatalf("primitive must not have a vector symbol")
	}
}

func TestProcNameErasesParams(t *testing.T) {
	in := types.NewInterner()
	obj := class(t, in, "lang.Object")
	in.SetRoot(obj)
	list := class(t, in, "util.List")
	e := in.RegisterTypeParam(in.Strings.Intern("E"), list, 0)
	b := in.Builtins()

	add := in.AddMethod(list, types.MethodInfo{
		Name:   in.Strings.Intern("add"),
		Params: []types.TypeID{e, b.Int, in.ArrayOf(b.Long)},
		Result: b.Bool,
	})
	m := New(in)
	if got, want := m.ProcName(add), "_MN4util4ListE3add_N4lang6ObjectEIAJ"; got != want {
		t.Fatalf("ProcName = %q, want %q", got, want)
	}
	if m.ProcName(types.NoMethodID) != "" {
		t.Fatalf("unknown method must mangle to empty string")
	}
}

func TestNFCNormalization(t *testing.T) {
	in := types.NewInterner()
	composed := class(t, in, "Caf\u00e9")
	decomposed := class(t, in, "Cafe\u0301")
	m := New(in)
	if m.VectorGlobal(composed) != m.VectorGlobal(decomposed) {
		t.Fatalf("NFC forms must mangle identically: %q vs %q",
			m.VectorGlobal(composed), m.VectorGlobal(decomposed))
	}
	if got, want := m.VectorGlobal(composed), "_DVN5Caf\u00e9E"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInstanceSharesSymbol(t *testing.T) {
	in := types.NewInterner()
	obj := class(t, in, "lang.Object")
	in.SetRoot(obj)
	list := class(t, in, "util.List")
	in.RegisterTypeParam(in.Strings.Intern("E"), list, 0)
	str := class(t, in, "lang.String")
	integer := class(t, in, "lang.Integer")
	m := New(in)
	a := m.VectorGlobal(in.Instantiate(list, []types.TypeID{str}))
	b := m.VectorGlobal(in.Instantiate(list, []types.TypeID{integer}))
	if a != b || a != "_DVN4util4ListE" {
		t.Fatalf("instances must share the raw class symbol: %q %q", a, b)
	}
}
