package hierarchy

import (
	"strings"
	"testing"

	"dvgen/internal/diag"
	"dvgen/internal/source"
	"dvgen/internal/types"
)

func load(t *testing.T, files map[string]string, opts Options) (*Table, *diag.Bag, *source.FileSet, bool) {
	t.Helper()
	fs := source.NewFileSet()
	var ids []source.FileID
	for _, name := range sortedKeys(files) {
		ids = append(ids, fs.AddVirtual(name, []byte(files[name])))
	}
	bag := diag.NewBag(100)
	table, ok := Load(fs, ids, &diag.BagReporter{Bag: bag}, opts)
	return table, bag, fs, ok
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func dump(bag *diag.Bag) string {
	var sb strings.Builder
	for _, d := range bag.Items() {
		sb.WriteString(d.Code.ID())
		sb.WriteString(": ")
		sb.WriteString(d.Message)
		sb.WriteByte('\n')
	}
	return sb.String()
}

const shapesTOML = `
[[class]]
name = "geo.Shape"
abstract = true

  [[class.method]]
  name = "area"
  result = "double"
  abstract = true

  [[class.method]]
  name = "name"
  result = "lang.Object"

[[class]]
name = "geo.Circle"
super = "geo.Shape"
unit = "circles"

  [[class.field]]
  name = "r"
  type = "double"

  [[class.method]]
  name = "area"
  result = "double"

  [[class.method]]
  name = "scale"
  params = ["double", "int[]"]
`

func TestLoadTOML(t *testing.T) {
	table, bag, _, ok := load(t, map[string]string{"shapes.toml": shapesTOML}, Options{})
	if !ok {
		t.Fatalf("load failed:\n%s", dump(bag))
	}
	in := table.Types
	root := table.Root
	if got := types.Label(in, root); got != DefaultRoot {
		t.Fatalf("root = %s", got)
	}
	if table.Classes[0] != root {
		t.Fatalf("implicit root should come first")
	}
	shape, ok := table.Lookup("geo.Shape")
	if !ok {
		t.Fatalf("geo.Shape missing")
	}
	circle, _ := table.Lookup("geo.Circle")
	if in.SuperOf(shape) != root || in.SuperOf(circle) != shape {
		t.Fatalf("unexpected supers")
	}
	if table.UnitOf(circle) != "circles" || table.UnitOf(shape) != DefaultUnit {
		t.Fatalf("units: %q %q", table.UnitOf(circle), table.UnitOf(shape))
	}
	if strings.Join(table.Units, ",") != "circles,main" {
		t.Fatalf("units = %v", table.Units)
	}
	info, _ := in.ClassInfo(circle)
	if len(info.Fields) != 1 || len(info.Methods) != 2 {
		t.Fatalf("circle members: %d fields, %d methods", len(info.Fields), len(info.Methods))
	}
	scale, _ := in.Method(info.Methods[1])
	if scale.Result != in.Builtins().Void || len(scale.Params) != 2 || scale.Params[1] != in.ArrayOf(in.Builtins().Int) {
		t.Fatalf("scale signature: %+v", scale)
	}
	if scale.Decl.Empty() {
		t.Fatalf("method span missing")
	}
	if got := table.ClassesIn("circles"); len(got) != 1 || got[0] != circle {
		t.Fatalf("ClassesIn(circles) = %v", got)
	}
}

func TestLoadYAMLSpans(t *testing.T) {
	src := `root: base.Root
class:
  - name: base.Root
  - name: base.List
    params: ["E"]
    interface: true
    method:
      - name: get
        params: [int]
        result: E
  - name: base.ArrayList
    params: ["E extends base.Root"]
    implements: ["base.List<E>"]
    method:
      - name: get
        params: [int]
        result: E
      - name: missing
        result: base.Nope
`
	_, bag, fs, ok := load(t, map[string]string{"list.yaml": src}, Options{})
	if ok {
		t.Fatalf("expected failure for unknown type")
	}
	var found bool
	for _, d := range bag.Items() {
		if d.Code != diag.HirUnknownType {
			continue
		}
		found = true
		start, _ := fs.Resolve(d.Primary)
		if start.Line != 18 {
			t.Fatalf("unknown type reported at line %d", start.Line)
		}
	}
	if !found {
		t.Fatalf("expected %s:\n%s", diag.HirUnknownType.ID(), dump(bag))
	}
}

func TestLoadYAMLGenerics(t *testing.T) {
	src := `class:
  - name: base.List
    params: ["E"]
    interface: true
  - name: base.ArrayList
    params: ["E extends lang.Object"]
    implements: ["base.List<E>"]
    field:
      - name: items
        type: E[]
`
	table, bag, _, ok := load(t, map[string]string{"list.yml": src}, Options{})
	if !ok {
		t.Fatalf("load failed:\n%s", dump(bag))
	}
	in := table.Types
	list, _ := table.Lookup("base.List")
	al, _ := table.Lookup("base.ArrayList")
	info, _ := in.ClassInfo(al)
	if len(info.Interfaces) != 1 || in.Erase(info.Interfaces[0]) != list {
		t.Fatalf("interfaces = %v", info.Interfaces)
	}
	if in.SuperOf(list) != types.NoTypeID {
		t.Fatalf("interface must not get a superclass")
	}
	if got := table.ClassesIn(DefaultUnit); len(got) != 2 {
		t.Fatalf("ClassesIn should skip interfaces, got %d", len(got))
	}
	if len(info.Fields) != 1 || !in.SameErasure(info.Fields[0].Type, in.ArrayOf(table.Root)) {
		t.Fatalf("field E[] should erase to Object[]")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"duplicate", `
[[class]]
name = "a.A"
[[class]]
name = "a.A"
`, diag.HirDuplicateClass},
		{"cycle", `
[[class]]
name = "a.A"
super = "a.B"
[[class]]
name = "a.B"
super = "a.A"
`, diag.HirCyclicInheritance},
		{"extends interface", `
[[class]]
name = "a.I"
interface = true
[[class]]
name = "a.A"
super = "a.I"
`, diag.HirSuperIsInterface},
		{"implements class", `
[[class]]
name = "a.B"
[[class]]
name = "a.A"
implements = ["a.B"]
`, diag.HirImplementsClass},
		{"extends final", `
[[class]]
name = "a.B"
final = true
[[class]]
name = "a.A"
super = "a.B"
`, diag.HirExtendsFinal},
		{"type args", `
[[class]]
name = "a.Box"
params = ["T"]
[[class]]
name = "a.A"
super = "a.Box<a.A, a.A>"
`, diag.HirTypeArgCount},
		{"duplicate method", `
[[class]]
name = "a.A"
  [[class.method]]
  name = "f"
  params = ["int"]
  [[class.method]]
  name = "f"
  params = ["int"]
  result = "long"
`, diag.HirDuplicateMethod},
		{"final override", `
[[class]]
name = "a.A"
  [[class.method]]
  name = "f"
  final = true
[[class]]
name = "a.B"
super = "a.A"
  [[class.method]]
  name = "f"
`, diag.HirFinalOverridden},
		{"root with super", `
root = "a.R"
[[class]]
name = "a.X"
[[class]]
name = "a.R"
super = "a.X"
`, diag.HirRootHasSuper},
		{"empty name", `
[[class]]
super = "a.X"
`, diag.HirEmptyName},
		{"bad type", `
[[class]]
name = "a.A"
  [[class.field]]
  name = "x"
  type = "int["
`, diag.HirBadTypeExpr},
		{"parse", "[[class]\nname = 1\n", diag.HirParseFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, bag, _, ok := load(t, map[string]string{"in.toml": tc.src}, Options{})
			if ok {
				t.Fatalf("expected failure")
			}
			if !hasCode(bag, tc.code) {
				t.Fatalf("expected %s, got:\n%s", tc.code.ID(), dump(bag))
			}
		})
	}
}

func TestCycleIsBroken(t *testing.T) {
	src := `
[[class]]
name = "a.A"
super = "a.B"
[[class]]
name = "a.B"
super = "a.A"
`
	table, bag, _, _ := load(t, map[string]string{"c.toml": src}, Options{})
	n := 0
	for _, d := range bag.Items() {
		if d.Code == diag.HirCyclicInheritance {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected one cycle report, got %d:\n%s", n, dump(bag))
	}
	a, _ := table.Lookup("a.A")
	if anc := table.Types.Ancestors(a); len(anc) == 0 || anc[0] != table.Root {
		t.Fatalf("cycle should be cut at the root, ancestors %v", anc)
	}
}

func TestUnknownKeyWarns(t *testing.T) {
	src := `
[[class]]
name = "a.A"
colour = "blue"
`
	_, bag, _, ok := load(t, map[string]string{"w.toml": src}, Options{})
	if !ok {
		t.Fatalf("warnings must not fail the load:\n%s", dump(bag))
	}
	if !hasCode(bag, diag.HirUnknownKey) || bag.HasErrors() {
		t.Fatalf("expected a single warning:\n%s", dump(bag))
	}
}

func TestUnsupportedFormat(t *testing.T) {
	_, bag, _, ok := load(t, map[string]string{"classes.json": "{}"}, Options{})
	if ok || !hasCode(bag, diag.HirUnsupportedFormat) {
		t.Fatalf("expected unsupported format:\n%s", dump(bag))
	}
}

func TestRootOverride(t *testing.T) {
	src := `
[[class]]
name = "x.Base"
[[class]]
name = "x.Leaf"
super = "x.Base"
`
	table, bag, _, ok := load(t, map[string]string{"r.toml": src}, Options{RootName: "x.Base", DefaultUnit: "core"})
	if !ok {
		t.Fatalf("load failed:\n%s", dump(bag))
	}
	base, _ := table.Lookup("x.Base")
	if table.Root != base || table.Types.Root() != base {
		t.Fatalf("declared class should become the root")
	}
	if table.Types.SuperOf(base) != types.NoTypeID {
		t.Fatalf("root must have no superclass")
	}
	if len(table.Units) != 1 || table.Units[0] != "core" {
		t.Fatalf("units = %v", table.Units)
	}
}

func TestHashCoversInputs(t *testing.T) {
	a, _, _, _ := load(t, map[string]string{"a.toml": shapesTOML}, Options{})
	b, _, _, _ := load(t, map[string]string{"a.toml": shapesTOML + "\n"}, Options{})
	if a.Hash == b.Hash {
		t.Fatalf("hash should change with the input")
	}
}
