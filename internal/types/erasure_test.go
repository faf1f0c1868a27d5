package types

import (
	"testing"

	"dvgen/internal/source"
)

func sourceSpan() source.Span { return source.Span{} }

func newClass(t *testing.T, in *Interner, name string, super TypeID) TypeID {
	t.Helper()
	id, fresh := in.RegisterClass(in.Strings.Intern(name), sourceSpan(), 0)
	if !fresh {
		t.Fatalf("class %s registered twice", name)
	}
	in.SetSuper(id, super)
	return id
}

func TestEraseCollapsesInstances(t *testing.T) {
	in := NewInterner()
	object := newClass(t, in, "lang.Object", NoTypeID)
	in.SetRoot(object)
	str := newClass(t, in, "lang.String", object)
	integer := newClass(t, in, "lang.Integer", object)
	list := newClass(t, in, "util.List", object)
	in.RegisterTypeParam(in.Strings.Intern("E"), list, 0)

	ls := in.Instantiate(list, []TypeID{str})
	li := in.Instantiate(list, []TypeID{integer})
	if ls == li {
		t.Fatalf("distinct instantiations must have distinct ids")
	}
	if in.Erase(ls) != list || in.Erase(li) != list {
		t.Fatalf("instances must erase to the generic class")
	}
	if again := in.Instantiate(list, []TypeID{str}); again != ls {
		t.Fatalf("instantiation must be memoized")
	}
	if got := Label(in, ls); got != "util.List<lang.String>" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestEraseTypeParamUsesBound(t *testing.T) {
	in := NewInterner()
	object := newClass(t, in, "lang.Object", NoTypeID)
	in.SetRoot(object)
	number := newClass(t, in, "lang.Number", object)
	box := newClass(t, in, "Box", object)
	unbounded := in.RegisterTypeParam(in.Strings.Intern("T"), box, 0)
	bounded := in.RegisterTypeParam(in.Strings.Intern("N"), box, 1)
	in.SetTypeParamBound(bounded, in.Instantiate(number, nil))

	if in.Erase(unbounded) != object {
		t.Fatalf("unbounded parameter must erase to the root class")
	}
	if in.Erase(bounded) != number {
		t.Fatalf("bounded parameter must erase to its bound")
	}
	if !in.SameErasure(in.ArrayOf(unbounded), in.ArrayOf(object)) {
		t.Fatalf("T[] and Object[] share an erasure")
	}
}

func TestAncestorsRootFirst(t *testing.T) {
	in := NewInterner()
	object := newClass(t, in, "lang.Object", NoTypeID)
	base := newClass(t, in, "Base", object)
	generic := newClass(t, in, "Mid", base)
	in.RegisterTypeParam(in.Strings.Intern("T"), generic, 0)
	derived := newClass(t, in, "Derived", in.Instantiate(generic, []TypeID{base}))

	chain := in.Ancestors(derived)
	want := []TypeID{object, base, generic, derived}
	if len(chain) != len(want) {
		t.Fatalf("expected %d ancestors, got %v", len(want), chain)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("ancestor %d: expected %d, got %d", i, want[i], chain[i])
		}
	}
	if in.SuperOf(derived) != generic {
		t.Fatalf("SuperOf must erase the instance superclass")
	}
}
