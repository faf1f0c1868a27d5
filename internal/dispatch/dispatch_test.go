package dispatch

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"dvgen/internal/diag"
	"dvgen/internal/llvmutil"
	"dvgen/internal/mangle"
	"dvgen/internal/resolve"
	"dvgen/internal/rtti"
	"dvgen/internal/source"
	dvtypes "dvgen/internal/types"
)

type world struct {
	in   *dvtypes.Interner
	root dvtypes.TypeID
	mg   *mangle.Mangler
	res  *resolve.Resolver
}

func newWorld() *world {
	in := dvtypes.NewInterner()
	root, _ := in.RegisterClass(in.Strings.Intern("Object"), source.Span{}, 0)
	in.SetRoot(root)
	return &world{in: in, root: root, mg: mangle.New(in)}
}

func (w *world) class(name string, super dvtypes.TypeID) dvtypes.TypeID {
	id, _ := w.in.RegisterClass(w.in.Strings.Intern(name), source.Span{}, 0)
	w.in.SetSuper(id, super)
	return id
}

func (w *world) method(class dvtypes.TypeID, name string, params ...dvtypes.TypeID) dvtypes.MethodID {
	return w.in.AddMethod(class, dvtypes.MethodInfo{
		Name:   w.in.Strings.Intern(name),
		Params: params,
		Result: w.in.Builtins().Void,
	})
}

func (w *world) context() *Context {
	if w.res == nil {
		w.res = resolve.New(w.in)
	}
	mod := llvmutil.NewModule("test", w.in, w.mg)
	return NewContext(Config{
		Types:   w.in,
		Module:  mod,
		Mangler: w.mg,
		Methods: w.res,
		RTTI:    rtti.New(mod, w.in, w.mg, nil),
	})
}

func methodNames(t *testing.T, g *ir.Global) []string {
	t.Helper()
	st, ok := g.Init.(*constant.Struct)
	if !ok {
		t.Fatalf("vector initializer is %T", g.Init)
	}
	arr, ok := st.Fields[Methods].(*constant.Array)
	if !ok {
		t.Fatalf("methods component is %T", st.Fields[Methods])
	}
	names := make([]string, len(arr.Elems))
	for i, e := range arr.Elems {
		bc, ok := e.(*constant.ExprBitCast)
		if !ok {
			t.Fatalf("slot %d is %T", i, e)
		}
		f, ok := bc.From.(*ir.Func)
		if !ok {
			t.Fatalf("slot %d points at %T", i, bc.From)
		}
		names[i] = f.Name()
	}
	return names
}

func expectICE(t *testing.T, code diag.Code, fn func()) {
	t.Helper()
	var err error
	func() {
		defer diag.Recover(&err)
		fn()
	}()
	ice, ok := diag.IsInternal(err)
	if !ok || ice.Code != code {
		t.Fatalf("expected %s, got %v", code.ID(), err)
	}
}

func TestStructTypeRefIdempotent(t *testing.T) {
	w := newWorld()
	a := w.class("A", w.root)
	c := w.context()
	first := c.StructTypeRef(a)
	if first != c.StructTypeRef(a) {
		t.Fatalf("StructTypeRef must return the identical handle")
	}
	if !first.Opaque {
		t.Fatalf("type must stay opaque until filled")
	}
	if c.StructTypeRefNonOpaque(a) != first || first.Opaque {
		t.Fatalf("filling must complete the same handle")
	}
	fields := len(first.Fields)
	c.StructTypeRefNonOpaque(a)
	if len(first.Fields) != fields || !c.IsFilled(a) {
		t.Fatalf("second fill must be a no-op")
	}
}

func TestErasureCollapsing(t *testing.T) {
	w := newWorld()
	list := w.class("List", w.root)
	w.in.RegisterTypeParam(w.in.Strings.Intern("E"), list, 0)
	w.method(list, "size")
	str := w.class("String", w.root)
	integer := w.class("Integer", w.root)
	ls := w.in.Instantiate(list, []dvtypes.TypeID{str})
	li := w.in.Instantiate(list, []dvtypes.TypeID{integer})

	c := w.context()
	if c.StructTypeRef(ls) != c.StructTypeRef(li) || c.StructTypeRef(ls) != c.StructTypeRef(list) {
		t.Fatalf("instances must share the raw class vector type")
	}
	gs, gi := c.GetDispatchVectorFor(ls), c.GetDispatchVectorFor(li)
	if gs != gi || gs.Name() != "_DVN4ListE" {
		t.Fatalf("instances must share one global, got @%s and @%s", gs.Name(), gi.Name())
	}
	c.InitializeDispatchVectorFor(ls)
	expectICE(t, diag.ICEVectorReinitialized, func() { c.InitializeDispatchVectorFor(li) })
}

func TestBaseDerivedScenario(t *testing.T) {
	w := newWorld()
	base := w.class("Base", w.root)
	foo := w.method(base, "foo")
	w.method(base, "bar")
	derived := w.class("Derived", base)
	bar2 := w.method(derived, "bar")
	w.method(derived, "baz")

	c := w.context()
	c.InitializeDispatchVectorFor(base)
	c.InitializeDispatchVectorFor(derived)

	got := methodNames(t, c.GetDispatchVectorFor(derived))
	want := []string{"_MN4BaseE3foo_", "_MN7DerivedE3bar_", "_MN7DerivedE3baz_"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Derived methods = %v, want %v", got, want)
	}
	if got[0] != w.mg.ProcName(foo) || got[1] != w.mg.ProcName(bar2) {
		t.Fatalf("slot 0 must be Base.foo and slot 1 Derived.bar")
	}
	arrT, ok := c.StructTypeRef(derived).Fields[Methods].(*types.ArrayType)
	if !ok || arrT.Len != 3 {
		t.Fatalf("Derived methods array type = %v", c.StructTypeRef(derived).Fields[Methods])
	}
}

func TestPrefixCompatibility(t *testing.T) {
	w := newWorld()
	a := w.class("A", w.root)
	w.method(a, "m1")
	w.method(a, "m2")
	w.method(a, "m3")
	b := w.class("B", a)
	w.method(b, "m4")
	w.method(b, "m2")
	cc := w.class("C", b)
	w.method(cc, "m1")
	w.method(cc, "m5")
	w.method(cc, "m4")

	c := w.context()
	chain := []dvtypes.TypeID{a, b, cc}
	for _, cl := range chain {
		c.InitializeDispatchVectorFor(cl)
	}
	for i := 1; i < len(chain); i++ {
		sub := methodNames(t, c.GetDispatchVectorFor(chain[i]))
		sup := methodNames(t, c.GetDispatchVectorFor(chain[i-1]))
		if len(sub) < len(sup) {
			t.Fatalf("subclass vector shorter than superclass")
		}
		for k := range sup {
			subName := sub[k][strings.Index(sub[k], "E")+1:]
			supName := sup[k][strings.Index(sup[k], "E")+1:]
			if subName != supName {
				t.Fatalf("slot %d: %s does not implement %s", k, sub[k], sup[k])
			}
		}
	}
	got := methodNames(t, c.GetDispatchVectorFor(cc))
	want := []string{"_MN1CE2m1_", "_MN1BE2m2_", "_MN1AE2m3_", "_MN1CE2m4_", "_MN1CE2m5_"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("C methods = %v, want %v", got, want)
	}
}

func TestFixedOrdinalLayout(t *testing.T) {
	if ClassObject != 0 || InterfaceHashTable != 1 || SuperTypes != 2 || Methods != 3 || ComponentCount != 4 {
		t.Fatalf("component ordinals changed")
	}
	names := []string{"class_object", "interface_hash_table", "super_types", "methods"}
	for i, k := range Components() {
		if k.String() != names[i] {
			t.Fatalf("component %d = %s, want %s", i, k, names[i])
		}
	}

	w := newWorld()
	prev := w.root
	var chain []dvtypes.TypeID
	for _, name := range []string{"L1", "L2", "L3", "L4"} {
		prev = w.class(name, prev)
		w.method(prev, "m"+name)
		chain = append(chain, prev)
	}
	c := w.context()
	for depth, cl := range chain {
		c.InitializeDispatchVectorFor(cl)
		st := c.StructTypeRef(cl)
		wantTypes := []string{"%rt.Class**", "i8*", "i8**"}
		for i, want := range wantTypes {
			if got := st.Fields[i].String(); got != want {
				t.Fatalf("depth %d field %d = %s, want %s", depth, i, got, want)
			}
		}
		arr := st.Fields[Methods].(*types.ArrayType)
		if arr.Len != uint64(depth+1) || !arr.ElemType.Equal(types.I8Ptr) {
			t.Fatalf("depth %d methods field = %s", depth, arr)
		}
		init := c.GetDispatchVectorFor(cl).Init.(*constant.Struct)
		if _, ok := init.Fields[InterfaceHashTable].(*constant.Null); !ok {
			t.Fatalf("interface hash table must start null")
		}
	}
}

func TestForwardReferenceSafety(t *testing.T) {
	w := newWorld()
	a := w.class("A", w.root)
	b := w.class("B", w.root)
	w.in.AddField(a, dvtypes.FieldInfo{Name: w.in.Strings.Intern("b"), Type: b})
	w.in.AddField(b, dvtypes.FieldInfo{Name: w.in.Strings.Intern("a"), Type: a})
	w.method(a, "link", b)
	w.method(b, "link", a)

	c := w.context()
	ga := c.GetDispatchVectorFor(a)
	gb := c.GetDispatchVectorFor(b)
	if c.State(a) != Declared || c.State(b) != Declared {
		t.Fatalf("vectors must be declared")
	}
	if c.IsFilled(a) || c.IsFilled(b) {
		t.Fatalf("declaring must not fill types")
	}
	c.InitializeDispatchVectorFor(a)
	c.InitializeDispatchVectorFor(b)
	if ga.Init == nil || gb.Init == nil {
		t.Fatalf("both vectors must be initialized")
	}
	if c.State(a) != Initialized {
		t.Fatalf("state = %s", c.State(a))
	}
	out := c.Module().String()
	if !strings.Contains(out, "%dv.A = type { %rt.Class**, i8*, i8**, [1 x i8*] }") {
		t.Fatalf("unexpected IR:\n%s", out)
	}
}

func TestSlotAddressing(t *testing.T) {
	w := newWorld()
	base := w.class("Base", w.root)
	w.method(base, "foo")
	bar := w.method(base, "bar")
	derived := w.class("Derived", base)
	w.method(derived, "bar")
	baz := w.method(derived, "baz")

	c := w.context()
	f := c.Module().M.NewFunc("caller", types.Void, ir.NewParam("dv", types.I8Ptr))
	blk := f.NewBlock("entry")

	cases := []struct {
		receiver dvtypes.TypeID
		method   dvtypes.MethodID
		slot     int64
	}{
		{base, bar, 1},
		{derived, bar, 1},
		{derived, baz, 2},
	}
	for _, tc := range cases {
		gep := c.AddressOfMethodSlot(blk, f.Params[0], tc.receiver, tc.method)
		if gep.ElemType != c.StructTypeRef(tc.receiver) {
			t.Fatalf("GEP must index the receiver's vector type")
		}
		if len(gep.Indices) != 3 {
			t.Fatalf("expected 3 indices, got %d", len(gep.Indices))
		}
		want := []int64{0, int64(Methods), tc.slot}
		for i, idx := range gep.Indices {
			ci, ok := idx.(*constant.Int)
			if !ok || ci.X.Int64() != want[i] {
				t.Fatalf("index %d = %v, want %d", i, idx, want[i])
			}
		}
		if got := gep.Type().String(); got != "i8**" {
			t.Fatalf("slot address type = %s", got)
		}
	}
	if !c.IsFilled(derived) {
		t.Fatalf("addressing a slot must fill the receiver type")
	}

	g := c.GetDispatchVectorFor(derived)
	gep := c.AddressOfMethodSlot(blk, g, derived, baz)
	if gep.Src != g {
		t.Fatalf("a correctly typed vector pointer must be used as is")
	}
}

func TestInterfaceHasNoVector(t *testing.T) {
	w := newWorld()
	iface, _ := w.in.RegisterClass(w.in.Strings.Intern("Runnable"), source.Span{}, dvtypes.ClassInterface)
	c := w.context()
	expectICE(t, diag.ICENotAClass, func() { c.StructTypeRef(iface) })
	expectICE(t, diag.ICENotAClass, func() { c.GetDispatchVectorFor(w.in.Builtins().Int) })
}

type brokenMangler struct{ *mangle.Mangler }

func (brokenMangler) ProcName(dvtypes.MethodID) string { return "" }

func TestMissingMangledNameIsICE(t *testing.T) {
	w := newWorld()
	a := w.class("A", w.root)
	w.method(a, "run")
	mod := llvmutil.NewModule("test", w.in, w.mg)
	c := NewContext(Config{
		Types:   w.in,
		Module:  mod,
		Mangler: brokenMangler{w.mg},
		Methods: resolve.New(w.in),
		RTTI:    rtti.New(mod, w.in, w.mg, nil),
	})
	expectICE(t, diag.ICEMissingMangledName, func() { c.InitializeDispatchVectorFor(a) })
	if c.IsInitialized(a) {
		t.Fatalf("failed initialization must not set the marker")
	}
}

func TestInitializedOrder(t *testing.T) {
	w := newWorld()
	a := w.class("A", w.root)
	b := w.class("B", a)
	c := w.context()
	if c.State(b) != Unallocated {
		t.Fatalf("fresh context must have no vectors")
	}
	c.InitializeDispatchVectorFor(b)
	c.InitializeDispatchVectorFor(a)
	got := c.Initialized()
	if len(got) != 2 || got[0] != b || got[1] != a {
		t.Fatalf("Initialized() = %v", got)
	}
}
