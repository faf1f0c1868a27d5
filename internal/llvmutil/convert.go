package llvmutil

import (
	"github.com/llir/llvm/ir/types"

	"dvgen/internal/diag"
	dvtypes "dvgen/internal/types"
)

const (
	// ArrayTypeName is the opaque struct standing for every array object.
	ArrayTypeName = "rt.Array"
	// ClassTypeName is the opaque struct of class metadata objects.
	ClassTypeName = "rt.Class"
)

// BytePtr is the generic pointer type, i8*.
func BytePtr() *types.PointerType {
	return types.I8Ptr
}

// ToLL maps a class-table type onto its LLVM type. References become pointers
// to opaque named structs; object layout is not modelled here.
func (m *Module) ToLL(id dvtypes.TypeID) types.Type {
	erased := m.types.Erase(id)
	tt, ok := m.types.Lookup(erased)
	if !ok {
		diag.Abort(diag.ICEMalformedType, "unknown type id %d", id)
	}
	switch tt.Kind {
	case dvtypes.KindVoid:
		return types.Void
	case dvtypes.KindBool:
		return types.I1
	case dvtypes.KindChar:
		return types.I16
	case dvtypes.KindInt:
		switch tt.Width {
		case dvtypes.Width8:
			return types.I8
		case dvtypes.Width16:
			return types.I16
		case dvtypes.Width64:
			return types.I64
		default:
			return types.I32
		}
	case dvtypes.KindFloat:
		if tt.Width == dvtypes.Width32 {
			return types.Float
		}
		return types.Double
	case dvtypes.KindArray:
		return types.NewPointer(m.NamedOpaqueStruct(ArrayTypeName))
	case dvtypes.KindClass:
		return types.NewPointer(m.NamedOpaqueStruct(m.namer.ObjectTypeName(erased)))
	}
	diag.Abort(diag.ICEMalformedType, "type %s has no LLVM representation", dvtypes.Label(m.types, id))
	return nil
}

// FuncType builds the LLVM signature of a method declared in container:
// the receiver first, then the formals.
func (m *Module) FuncType(container, result dvtypes.TypeID, formals []dvtypes.TypeID) *types.FuncType {
	params := make([]types.Type, 0, len(formals)+1)
	params = append(params, m.ToLL(container))
	for _, f := range formals {
		params = append(params, m.ToLL(f))
	}
	return types.NewFunc(m.ToLL(result), params...)
}
