package resolve

import (
	"slices"
	"sync"
	"testing"

	"dvgen/internal/diag"
	"dvgen/internal/source"
	"dvgen/internal/types"
)

type fixture struct {
	in   *types.Interner
	root types.TypeID
}

func newFixture() *fixture {
	in := types.NewInterner()
	root, _ := in.RegisterClass(in.Strings.Intern("Object"), source.Span{}, 0)
	in.SetRoot(root)
	return &fixture{in: in, root: root}
}

func (f *fixture) class(name string, super types.TypeID) types.TypeID {
	id, _ := f.in.RegisterClass(f.in.Strings.Intern(name), source.Span{}, 0)
	f.in.SetSuper(id, super)
	return id
}

func (f *fixture) method(class types.TypeID, name string, flags types.MethodFlags, params ...types.TypeID) types.MethodID {
	return f.in.AddMethod(class, types.MethodInfo{
		Name:   f.in.Strings.Intern(name),
		Params: params,
		Result: f.in.Builtins().Void,
		Flags:  flags,
	})
}

func TestBaseDerivedScenario(t *testing.T) {
	f := newFixture()
	base := f.class("Base", f.root)
	foo := f.method(base, "foo", 0)
	bar := f.method(base, "bar", 0)
	derived := f.class("Derived", base)
	bar2 := f.method(derived, "bar", 0)
	baz := f.method(derived, "baz", 0)

	r := New(f.in)
	if got, want := r.SlotList(base), []types.MethodID{foo, bar}; !slices.Equal(got, want) {
		t.Fatalf("Base slots = %v, want %v", got, want)
	}
	if got, want := r.SlotList(derived), []types.MethodID{foo, bar2, baz}; !slices.Equal(got, want) {
		t.Fatalf("Derived slots = %v, want %v", got, want)
	}
	if r.SlotIndex(derived, bar) != 1 || r.SlotIndex(derived, bar2) != 1 {
		t.Fatalf("bar must resolve to slot 1 through either declaration")
	}
	if r.SlotIndex(derived, baz) != 2 {
		t.Fatalf("baz must be appended at slot 2")
	}
	ovs := r.Overrides(derived)
	if len(ovs) != 1 || ovs[0] != (Override{Slot: 1, Method: bar2, Overridden: bar}) {
		t.Fatalf("unexpected overrides %+v", ovs)
	}
	if prev, ok := r.Overridden(bar2); !ok || prev != bar {
		t.Fatalf("Overridden(bar') = %v, %v", prev, ok)
	}
}

func TestStaticAndConstructorsExcluded(t *testing.T) {
	f := newFixture()
	c := f.class("C", f.root)
	f.method(c, "<init>", types.MethodConstructor)
	f.method(c, "make", types.MethodStatic)
	run := f.method(c, "run", 0)
	r := New(f.in)
	if got := r.SlotList(c); !slices.Equal(got, []types.MethodID{run}) {
		t.Fatalf("slots = %v", got)
	}
}

func TestOverloadsAreDistinctSlots(t *testing.T) {
	f := newFixture()
	b := f.in.Builtins()
	c := f.class("C", f.root)
	m1 := f.method(c, "put", 0, b.Int)
	m2 := f.method(c, "put", 0, b.Long)
	d := f.class("D", c)
	m3 := f.method(d, "put", 0, b.Long)
	r := New(f.in)
	if got := r.SlotList(d); !slices.Equal(got, []types.MethodID{m1, m3}) {
		t.Fatalf("slots = %v, m2 = %d", got, m2)
	}
}

func TestGenericFormalsMatchByErasure(t *testing.T) {
	f := newFixture()
	list := f.class("List", f.root)
	e := f.in.RegisterTypeParam(f.in.Strings.Intern("E"), list, 0)
	add := f.method(list, "add", 0, e)
	arr := f.method(list, "addAll", 0, f.in.ArrayOf(e))

	impl := f.class("ArrayList", f.in.Instantiate(list, []types.TypeID{f.root}))
	add2 := f.method(impl, "add", 0, f.root)
	arr2 := f.method(impl, "addAll", 0, f.in.ArrayOf(f.root))

	r := New(f.in)
	if got := r.SlotList(impl); !slices.Equal(got, []types.MethodID{add2, arr2}) {
		t.Fatalf("slots = %v (base %v %v)", got, add, arr)
	}
}

// A method whose formals only match after substituting type arguments is a
// new slot: there are no bridge methods.
func TestSubstitutedFormalsDoNotOverride(t *testing.T) {
	f := newFixture()
	box := f.class("Box", f.root)
	tp := f.in.RegisterTypeParam(f.in.Strings.Intern("T"), box, 0)
	put := f.method(box, "put", 0, tp)

	peer, _ := f.in.RegisterClass(f.in.Strings.Intern("Peer"), source.Span{}, 0)
	f.in.SetSuper(peer, f.in.Instantiate(box, []types.TypeID{peer}))
	putPeer := f.method(peer, "put", 0, peer)

	r := New(f.in)
	if got := r.SlotList(peer); !slices.Equal(got, []types.MethodID{put, putPeer}) {
		t.Fatalf("slots = %v, want [%d %d]", got, put, putPeer)
	}
	if r.SlotIndex(peer, put) != 0 || r.SlotIndex(peer, putPeer) != 1 {
		t.Fatalf("slot indices = %d %d", r.SlotIndex(peer, put), r.SlotIndex(peer, putPeer))
	}
	if _, ok := r.Overridden(putPeer); ok {
		t.Fatalf("Peer.put must not be reported as an override")
	}
}

func TestInstancesShareSlotList(t *testing.T) {
	f := newFixture()
	list := f.class("List", f.root)
	f.in.RegisterTypeParam(f.in.Strings.Intern("E"), list, 0)
	f.method(list, "size", 0)
	str := f.class("String", f.root)
	integer := f.class("Integer", f.root)
	r := New(f.in)
	a := r.SlotList(f.in.Instantiate(list, []types.TypeID{str}))
	b := r.SlotList(f.in.Instantiate(list, []types.TypeID{integer}))
	if &a[0] != &b[0] {
		t.Fatalf("instances must share one memoized list")
	}
}

func TestMissingSlotIsICE(t *testing.T) {
	f := newFixture()
	a := f.class("A", f.root)
	b := f.class("B", f.root)
	m := f.method(b, "only", 0)
	r := New(f.in)
	var err error
	func() {
		defer diag.Recover(&err)
		r.SlotIndex(a, m)
	}()
	ice, ok := diag.IsInternal(err)
	if !ok || ice.Code != diag.ICEMissingMethod {
		t.Fatalf("expected missing-method ICE, got %v", err)
	}
	func() {
		defer diag.Recover(&err)
		r.SlotList(f.in.Builtins().Int)
	}()
	if ice, ok := diag.IsInternal(err); !ok || ice.Code != diag.ICENotAClass {
		t.Fatalf("expected not-a-class ICE, got %v", err)
	}
}

func TestConcurrentResolution(t *testing.T) {
	f := newFixture()
	prev := f.root
	var chain []types.TypeID
	for i := range 20 {
		c := f.class("C"+string(rune('a'+i)), prev)
		f.method(c, "m"+string(rune('a'+i)), 0)
		f.method(c, "shared", 0)
		chain = append(chain, c)
		prev = c
	}
	r := New(f.in)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := len(chain) - 1; i >= 0; i-- {
				if got := len(r.SlotList(chain[i])); got != i+2 {
					t.Errorf("class %d: %d slots, want %d", i, got, i+2)
				}
			}
		}()
	}
	wg.Wait()
}
