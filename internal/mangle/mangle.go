// Package mangle derives link symbols and LLVM type names for classes and methods.
//
// Identifiers are NFC-normalized first, so a class spelled with a precomposed
// or a decomposed accent maps to one symbol. Qualified class names are encoded
// as N<len><seg>...E, which keeps every symbol a concatenation of self-delimiting
// parts:
//
//	vector type    dv.<qualified>          dv.lang.Object
//	object type    class.<qualified>       class.lang.Object
//	vector global  _DV<C>                  _DVN4lang6ObjectE
//	super types    _ST<C>                  _STN4lang6ObjectE
//	static field   _F<C><len><name>        _FN4lang6ObjectE6class$
//	method         _M<C><len><name>_<P..>  _MN4lang6ObjectE6equals_N4lang6ObjectE
//
// Parameter codes: Z boolean, B byte, S short, C char, I int, J long, F float,
// D double, A<elem> array, and the class encoding for references. Parameters
// are erased first, so overriding methods with generic formals share a symbol shape.
package mangle

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"dvgen/internal/types"
)

// Mangler is safe for concurrent use once the interner is read-only.
type Mangler struct {
	types *types.Interner
}

func New(typesIn *types.Interner) *Mangler {
	return &Mangler{types: typesIn}
}

// QualifiedName returns the NFC form of the erased class name, or "" for non-classes.
func (m *Mangler) QualifiedName(class types.TypeID) string {
	info, ok := m.types.ClassInfo(class)
	if !ok {
		return ""
	}
	name, ok := m.types.Strings.Lookup(info.Name)
	if !ok || name == "" {
		return ""
	}
	return norm.NFC.String(name)
}

func (m *Mangler) VectorTypeName(class types.TypeID) string {
	return prefixed("dv.", m.QualifiedName(class))
}

func (m *Mangler) ObjectTypeName(class types.TypeID) string {
	return prefixed("class.", m.QualifiedName(class))
}

func (m *Mangler) VectorGlobal(class types.TypeID) string {
	return prefixed("_DV", m.classCode(class))
}

func (m *Mangler) SuperTypesName(class types.TypeID) string {
	return prefixed("_ST", m.classCode(class))
}

func (m *Mangler) StaticFieldName(class types.TypeID, field string) string {
	c := m.classCode(class)
	if c == "" || field == "" {
		return ""
	}
	return "_F" + c + lengthPrefixed(norm.NFC.String(field))
}

// ProcName returns the link name of a method, or "" when the method or its
// container is unknown.
func (m *Mangler) ProcName(id types.MethodID) string {
	mi, ok := m.types.Method(id)
	if !ok {
		return ""
	}
	c := m.classCode(mi.Container)
	name, ok := m.types.Strings.Lookup(mi.Name)
	if c == "" || !ok || name == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("_M")
	sb.WriteString(c)
	sb.WriteString(lengthPrefixed(norm.NFC.String(name)))
	sb.WriteByte('_')
	for _, p := range mi.Params {
		code := m.paramCode(p, 0)
		if code == "" {
			return ""
		}
		sb.WriteString(code)
	}
	return sb.String()
}

func (m *Mangler) classCode(class types.TypeID) string {
	q := m.QualifiedName(class)
	if q == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('N')
	for seg := range strings.SplitSeq(q, ".") {
		sb.WriteString(lengthPrefixed(seg))
	}
	sb.WriteByte('E')
	return sb.String()
}

func (m *Mangler) paramCode(id types.TypeID, depth int) string {
	if depth > 16 {
		return ""
	}
	erased := m.types.Erase(id)
	tt, ok := m.types.Lookup(erased)
	if !ok {
		return ""
	}
	switch tt.Kind {
	case types.KindBool:
		return "Z"
	case types.KindChar:
		return "C"
	case types.KindInt:
		switch tt.Width {
		case types.Width8:
			return "B"
		case types.Width16:
			return "S"
		case types.Width64:
			return "J"
		default:
			return "I"
		}
	case types.KindFloat:
		if tt.Width == types.Width32 {
			return "F"
		}
		return "D"
	case types.KindArray:
		elem := m.paramCode(tt.Elem, depth+1)
		if elem == "" {
			return ""
		}
		return "A" + elem
	case types.KindClass:
		return m.classCode(erased)
	}
	return ""
}

func lengthPrefixed(s string) string {
	return strconv.Itoa(len(s)) + s
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}
