// Package hierarchy loads checked class tables into a types.Interner.
//
// Inputs are TOML or YAML files listing classes with their type parameters,
// superclass, interfaces, fields and methods. Several files form one table.
// Every class without a superclass extends the root class, which is
// synthesized when no file declares it.
package hierarchy

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"slices"

	"dvgen/internal/diag"
	"dvgen/internal/resolve"
	"dvgen/internal/source"
	"dvgen/internal/types"
)

const (
	DefaultRoot = "lang.Object"
	DefaultUnit = "main"
)

type Options struct {
	RootName    string // overrides the root key of the inputs
	DefaultUnit string
}

// Table is a loaded class table. Its interner is read-only from here on.
type Table struct {
	Types   *types.Interner
	Root    types.TypeID
	Classes []types.TypeID // declaration order
	Units   []string       // sorted
	Hash    [32]byte       // over every input, in order
}

// UnitOf returns the compilation unit of class.
func (t *Table) UnitOf(class types.TypeID) string {
	info, ok := t.Types.ClassInfo(class)
	if !ok {
		return ""
	}
	return t.Types.Strings.MustLookup(info.Unit)
}

// ClassesIn lists the non-interface classes of unit in declaration order.
func (t *Table) ClassesIn(unit string) []types.TypeID {
	var out []types.TypeID
	for _, c := range t.Classes {
		info, _ := t.Types.ClassInfo(c)
		if !info.IsInterface() && t.UnitOf(c) == unit {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds a class by qualified name.
func (t *Table) Lookup(name string) (types.TypeID, bool) {
	for _, c := range t.Classes {
		info, _ := t.Types.ClassInfo(c)
		if t.Types.Strings.MustLookup(info.Name) == name {
			return c, true
		}
	}
	return types.NoTypeID, false
}

type entry struct {
	decl   *ClassDecl
	id     types.TypeID
	params map[string]types.TypeID
	bounds map[types.TypeID]string
}

type loader struct {
	fs      *source.FileSet
	rep     *countingReporter
	in      *types.Interner
	opts    Options
	byName  map[string]types.TypeID
	entries []*entry
	table   *Table
}

// Load decodes files and registers their classes. ok is false when any error
// was reported; the table is then incomplete and must not be compiled.
func Load(fs *source.FileSet, files []source.FileID, rep diag.Reporter, opts Options) (table *Table, ok bool) {
	if opts.DefaultUnit == "" {
		opts.DefaultUnit = DefaultUnit
	}
	l := &loader{
		fs:     fs,
		rep:    &countingReporter{next: rep},
		in:     types.NewInterner(),
		opts:   opts,
		byName: make(map[string]types.TypeID, 64),
	}
	l.table = &Table{Types: l.in}

	var decoded []*File
	contents := make([][]byte, 0, len(files))
	for _, id := range files {
		if f := fs.Get(id); f != nil {
			contents = append(contents, f.Content)
		}
		if file := Decode(fs, id, l.rep); file != nil {
			decoded = append(decoded, file)
		}
	}
	l.table.Hash = HashContents(contents...)
	if l.rep.errors > 0 {
		return l.table, false
	}

	l.register(decoded)
	l.ensureRoot(decoded)
	l.resolveHeaders()
	l.breakCycles()
	l.resolveMembers()
	if l.rep.errors == 0 {
		l.checkOverrides()
	}
	l.collectUnits()
	return l.table, l.rep.errors == 0
}

// HashContents hashes class table inputs in order.
func HashContents(contents ...[]byte) [32]byte {
	h := sha256.New()
	var n [8]byte
	for _, c := range contents {
		binary.LittleEndian.PutUint64(n[:], uint64(len(c)))
		h.Write(n[:])
		h.Write(c)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (l *loader) register(files []*File) {
	for _, f := range files {
		for i := range f.Classes {
			d := &f.Classes[i]
			if d.Name == "" {
				l.errorf(diag.HirEmptyName, d.span, "class without a name")
				continue
			}
			if !isQualified(d.Name) {
				l.errorf(diag.HirBadTypeExpr, d.span, "bad class name %q", d.Name)
				continue
			}
			var flags types.ClassFlags
			if d.Interface {
				flags |= types.ClassInterface
			}
			if d.Abstract {
				flags |= types.ClassAbstract
			}
			if d.Final {
				flags |= types.ClassFinal
			}
			id, fresh := l.in.RegisterClass(l.in.Strings.Intern(d.Name), d.span, flags)
			if !fresh {
				prev, _ := l.in.ClassInfo(id)
				diag.ReportError(l.rep, diag.HirDuplicateClass, d.span,
					fmt.Sprintf("class %s is already declared", d.Name)).
					WithNote(prev.Decl, "first declared here").Emit()
				continue
			}
			unit := d.Unit
			if unit == "" {
				unit = l.opts.DefaultUnit
			}
			l.in.SetUnit(id, l.in.Strings.Intern(unit))
			l.byName[d.Name] = id
			e := &entry{decl: d, id: id, params: make(map[string]types.TypeID, len(d.Params)), bounds: make(map[types.TypeID]string)}
			for idx, p := range d.Params {
				name, _, err := parseTypeParam(p)
				if err != nil {
					l.errorf(diag.HirBadTypeExpr, d.span, "type parameter %q of %s: %v", p, d.Name, err)
					continue
				}
				if _, dup := e.params[name]; dup {
					l.errorf(diag.HirBadTypeExpr, d.span, "type parameter %s of %s declared twice", name, d.Name)
					continue
				}
				tp := l.in.RegisterTypeParam(l.in.Strings.Intern(name), id, uint32(idx)) // #nosec G115 -- few params
				e.params[name] = tp
				e.bounds[tp] = p
			}
			l.entries = append(l.entries, e)
			l.table.Classes = append(l.table.Classes, id)
		}
	}
}

func (l *loader) ensureRoot(files []*File) {
	rootName := l.opts.RootName
	for _, f := range files {
		if rootName == "" && f.Root != "" {
			rootName = f.Root
		}
	}
	if rootName == "" {
		rootName = DefaultRoot
	}
	root, ok := l.byName[rootName]
	if !ok {
		root, _ = l.in.RegisterClass(l.in.Strings.Intern(rootName), source.Span{}, 0)
		l.in.SetUnit(root, l.in.Strings.Intern(l.opts.DefaultUnit))
		l.byName[rootName] = root
		l.table.Classes = slices.Insert(l.table.Classes, 0, root)
	}
	l.in.SetRoot(root)
	l.table.Root = root
}

func (l *loader) resolveHeaders() {
	for _, e := range l.entries {
		d := e.decl
		for tp, spelling := range e.bounds {
			_, bound, err := parseTypeParam(spelling)
			if err != nil || bound == nil {
				continue
			}
			if b := l.resolveExpr(bound, e, d.span); b != types.NoTypeID {
				l.in.SetTypeParamBound(tp, b)
			}
		}

		info, _ := l.in.ClassInfo(e.id)
		switch {
		case e.id == l.table.Root:
			if d.Super != "" {
				l.errorf(diag.HirRootHasSuper, d.superSpan, "root class %s cannot extend %s", d.Name, d.Super)
			}
		case d.Super == "":
			if !info.IsInterface() {
				l.in.SetSuper(e.id, l.table.Root)
			}
		case info.IsInterface():
			l.errorf(diag.HirSuperIsInterface, d.superSpan, "interface %s cannot extend a class; list %s under implements", d.Name, d.Super)
		default:
			super := l.resolveString(d.Super, e, d.superSpan)
			if super == types.NoTypeID {
				l.in.SetSuper(e.id, l.table.Root)
				break
			}
			sinfo, ok := l.in.ClassInfo(super)
			switch {
			case !ok:
				l.errorf(diag.HirBadTypeExpr, d.superSpan, "%s cannot extend %s", d.Name, d.Super)
				super = l.table.Root
			case sinfo.IsInterface():
				l.errorf(diag.HirSuperIsInterface, d.superSpan, "%s extends interface %s", d.Name, d.Super)
				super = l.table.Root
			case sinfo.Flags&types.ClassFinal != 0:
				l.errorf(diag.HirExtendsFinal, d.superSpan, "%s extends final class %s", d.Name, d.Super)
			}
			l.in.SetSuper(e.id, super)
		}

		ifaces := make([]types.TypeID, 0, len(d.Implements))
		for _, s := range d.Implements {
			it := l.resolveString(s, e, d.span)
			if it == types.NoTypeID {
				continue
			}
			if iinfo, ok := l.in.ClassInfo(it); !ok || !iinfo.IsInterface() {
				l.errorf(diag.HirImplementsClass, d.span, "%s implements %s, which is not an interface", d.Name, s)
				continue
			}
			ifaces = append(ifaces, it)
		}
		l.in.SetInterfaces(e.id, ifaces)
	}
}

// breakCycles reports superclass cycles and cuts each one at the class where
// it was found, so later passes see a tree.
func (l *loader) breakCycles() {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[types.TypeID]int, len(l.entries))
	for _, e := range l.entries {
		var path []types.TypeID
		for cur := e.id; cur != types.NoTypeID && state[cur] != done; cur = l.in.SuperOf(cur) {
			if state[cur] == active {
				first := slices.Index(path, cur)
				names := make([]string, 0, len(path)-first+1)
				for _, c := range path[first:] {
					names = append(names, types.Label(l.in, c))
				}
				names = append(names, types.Label(l.in, cur))
				info, _ := l.in.ClassInfo(cur)
				l.errorf(diag.HirCyclicInheritance, info.Decl, "cyclic inheritance: %s", joinArrow(names))
				l.in.SetSuper(path[len(path)-1], l.table.Root)
				break
			}
			state[cur] = active
			path = append(path, cur)
		}
		for _, c := range path {
			state[c] = done
		}
	}
}

func (l *loader) resolveMembers() {
	sigs := resolve.New(l.in)
	for _, e := range l.entries {
		d := e.decl
		for _, fd := range d.Fields {
			if fd.Name == "" {
				l.errorf(diag.HirEmptyName, fd.span, "field of %s without a name", d.Name)
				continue
			}
			ft := l.resolveString(fd.Type, e, fd.span)
			if ft == types.NoTypeID {
				continue
			}
			l.in.AddField(e.id, types.FieldInfo{Name: l.in.Strings.Intern(fd.Name), Type: ft, Static: fd.Static})
		}

		seen := make(map[string]source.Span, len(d.Methods))
		for _, md := range d.Methods {
			if md.Name == "" {
				l.errorf(diag.HirEmptyName, md.span, "method of %s without a name", d.Name)
				continue
			}
			params := make([]types.TypeID, 0, len(md.Params))
			bad := false
			for _, p := range md.Params {
				pt := l.resolveString(p, e, md.span)
				if pt == types.NoTypeID {
					bad = true
					continue
				}
				if pt == l.in.Builtins().Void {
					l.errorf(diag.HirBadTypeExpr, md.span, "parameter of %s.%s cannot be void", d.Name, md.Name)
					bad = true
				}
				params = append(params, pt)
			}
			result := l.in.Builtins().Void
			if md.Result != "" {
				result = l.resolveString(md.Result, e, md.span)
				bad = bad || result == types.NoTypeID
			}
			if bad {
				continue
			}
			var flags types.MethodFlags
			if md.Static {
				flags |= types.MethodStatic
			}
			if md.Abstract || d.Interface {
				flags |= types.MethodAbstract
			}
			if md.Final {
				flags |= types.MethodFinal
			}
			if md.Constructor {
				flags |= types.MethodConstructor
			}
			id := l.in.AddMethod(e.id, types.MethodInfo{
				Name:   l.in.Strings.Intern(md.Name),
				Params: params,
				Result: result,
				Flags:  flags,
				Decl:   md.span,
			})
			sig := sigs.Signature(id)
			if prev, dup := seen[sig]; dup {
				diag.ReportError(l.rep, diag.HirDuplicateMethod, md.span,
					fmt.Sprintf("%s declared twice in %s", types.MethodLabel(l.in, id), d.Name)).
					WithNote(prev, "previous declaration").Emit()
				continue
			}
			seen[sig] = md.span
		}
	}
}

func (l *loader) checkOverrides() {
	r := resolve.New(l.in)
	for _, e := range l.entries {
		info, _ := l.in.ClassInfo(e.id)
		if info.IsInterface() {
			continue
		}
		for _, m := range info.Methods {
			prev, ok := r.Overridden(m)
			if !ok {
				continue
			}
			pm, _ := l.in.Method(prev)
			if pm.Flags&types.MethodFinal != 0 {
				mi, _ := l.in.Method(m)
				diag.ReportError(l.rep, diag.HirFinalOverridden, mi.Decl,
					fmt.Sprintf("%s overrides final %s", types.MethodLabel(l.in, m), types.MethodLabel(l.in, prev))).
					WithNote(pm.Decl, "declared final here").Emit()
			}
		}
	}
}

func (l *loader) collectUnits() {
	seen := make(map[string]struct{})
	for _, c := range l.table.Classes {
		u := l.table.UnitOf(c)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		l.table.Units = append(l.table.Units, u)
	}
	slices.Sort(l.table.Units)
}

func (l *loader) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(l.rep, code, sp, fmt.Sprintf(format, args...)).Emit()
}

type countingReporter struct {
	next   diag.Reporter
	errors int
}

func (r *countingReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	if sev >= diag.SevError {
		r.errors++
	}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

func isQualified(name string) bool {
	start := 0
	for i := 0; i <= len(name); i++ {
		if i == len(name) || name[i] == '.' {
			if !isIdent(name[start:i]) {
				return false
			}
			start = i + 1
		}
	}
	return true
}

func joinArrow(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " -> "
		}
		out += n
	}
	return out
}

var primitives = map[string]func(types.Builtins) types.TypeID{
	"void":    func(b types.Builtins) types.TypeID { return b.Void },
	"boolean": func(b types.Builtins) types.TypeID { return b.Bool },
	"byte":    func(b types.Builtins) types.TypeID { return b.Byte },
	"short":   func(b types.Builtins) types.TypeID { return b.Short },
	"char":    func(b types.Builtins) types.TypeID { return b.Char },
	"int":     func(b types.Builtins) types.TypeID { return b.Int },
	"long":    func(b types.Builtins) types.TypeID { return b.Long },
	"float":   func(b types.Builtins) types.TypeID { return b.Float },
	"double":  func(b types.Builtins) types.TypeID { return b.Double },
}

// resolveString parses and resolves a type spelling in the scope of e.
// NoTypeID means an error was reported.
func (l *loader) resolveString(spelling string, e *entry, sp source.Span) types.TypeID {
	expr, err := parseTypeExpr(spelling)
	if err != nil {
		l.errorf(diag.HirBadTypeExpr, sp, "type %q: %v", spelling, err)
		return types.NoTypeID
	}
	return l.resolveExpr(expr, e, sp)
}

func (l *loader) resolveExpr(expr *typeExpr, e *entry, sp source.Span) types.TypeID {
	var id types.TypeID
	if prim, ok := primitives[expr.Name]; ok {
		if len(expr.Args) > 0 {
			l.errorf(diag.HirTypeArgCount, sp, "%s takes no type arguments", expr.Name)
			return types.NoTypeID
		}
		id = prim(l.in.Builtins())
		if id == l.in.Builtins().Void && expr.Dims > 0 {
			l.errorf(diag.HirBadTypeExpr, sp, "array of void")
			return types.NoTypeID
		}
	} else if tp, ok := e.params[expr.Name]; ok {
		if len(expr.Args) > 0 {
			l.errorf(diag.HirTypeArgCount, sp, "type parameter %s takes no type arguments", expr.Name)
			return types.NoTypeID
		}
		id = tp
	} else if class, ok := l.byName[expr.Name]; ok {
		id = class
		if len(expr.Args) > 0 {
			info, _ := l.in.ClassInfo(class)
			if len(info.TypeParams) != len(expr.Args) {
				l.errorf(diag.HirTypeArgCount, sp, "%s expects %d type arguments, got %d",
					expr.Name, len(info.TypeParams), len(expr.Args))
				return types.NoTypeID
			}
			args := make([]types.TypeID, 0, len(expr.Args))
			for _, a := range expr.Args {
				at := l.resolveExpr(a, e, sp)
				if at == types.NoTypeID {
					return types.NoTypeID
				}
				if t, _ := l.in.Lookup(at); !t.IsReference() {
					l.errorf(diag.HirBadTypeExpr, sp, "type argument %s of %s is not a reference type", a, expr.Name)
					return types.NoTypeID
				}
				args = append(args, at)
			}
			id = l.in.Instantiate(class, args)
		}
	} else {
		l.reportUnknown(expr.Name, e, sp)
		return types.NoTypeID
	}
	for range expr.Dims {
		id = l.in.ArrayOf(id)
	}
	return id
}

func (l *loader) reportUnknown(name string, e *entry, sp source.Span) {
	b := diag.ReportError(l.rep, diag.HirUnknownType, sp, fmt.Sprintf("unknown type %s in %s", name, e.decl.Name))
	if near := l.nearest(name); near != "" {
		b = b.WithNote(sp, fmt.Sprintf("did you mean %s?", near))
	}
	b.Emit()
}

// nearest suggests a declared class whose last segment matches name.
func (l *loader) nearest(name string) string {
	var best string
	for cand := range l.byName {
		if cand == name || len(cand) <= len(name) || cand[len(cand)-len(name)-1:] != "."+name {
			continue
		}
		if best == "" || cand < best {
			best = cand
		}
	}
	return best
}
