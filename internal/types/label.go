package types

import (
	"fmt"
	"strings"

	"dvgen/internal/source"
)

// Label returns a source-like spelling of a TypeID, e.g. "java.util.Map<K, V[]>".
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID || typesIn == nil {
		return "?"
	}
	if depth > 8 {
		return "..."
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "boolean"
	case KindChar:
		return "char"
	case KindInt:
		switch tt.Width {
		case Width8:
			return "byte"
		case Width16:
			return "short"
		case Width64:
			return "long"
		default:
			return "int"
		}
	case KindFloat:
		if tt.Width == Width32 {
			return "float"
		}
		return "double"
	case KindArray:
		return labelDepth(typesIn, tt.Elem, depth+1) + "[]"
	case KindClass:
		if info := typesIn.classInfo(id); info != nil {
			return lookupName(typesIn, info.Name)
		}
	case KindTypeParam:
		if info := typesIn.typeParamInfo(id); info != nil {
			return lookupName(typesIn, info.Name)
		}
	case KindInstance:
		inst, ok := typesIn.InstanceInfo(id)
		if !ok {
			break
		}
		args := make([]string, 0, len(inst.Args))
		for _, a := range inst.Args {
			args = append(args, labelDepth(typesIn, a, depth+1))
		}
		return labelDepth(typesIn, inst.Class, depth+1) + "<" + strings.Join(args, ", ") + ">"
	}
	return fmt.Sprintf("type#%d", id)
}

// MethodLabel spells a method as Container.name(P1, P2): R.
func MethodLabel(typesIn *Interner, id MethodID) string {
	m, ok := typesIn.Method(id)
	if !ok {
		return "?"
	}
	params := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		params = append(params, Label(typesIn, p))
	}
	return fmt.Sprintf("%s.%s(%s): %s", Label(typesIn, m.Container), typesIn.MethodName(id),
		strings.Join(params, ", "), Label(typesIn, m.Result))
}

func lookupName(typesIn *Interner, id source.StringID) string {
	if typesIn.Strings == nil {
		return "?"
	}
	name, ok := typesIn.Strings.Lookup(id)
	if !ok || name == "" {
		return "?"
	}
	return name
}
