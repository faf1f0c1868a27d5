// Package rtti provides the class metadata symbols a dispatch vector points to:
// the class-object field of every class and its flat super-type array.
package rtti

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"dvgen/internal/diag"
	"dvgen/internal/llvmutil"
	dvtypes "dvgen/internal/types"
)

// ClassObjectFieldName is the static field holding a class's metadata object.
const ClassObjectFieldName = "class$"

type Namer interface {
	StaticFieldName(class dvtypes.TypeID, field string) string
	SuperTypesName(class dvtypes.TypeID) string
}

// Registry declares metadata symbols in one module. Symbols of classes the
// module owns are defined; the rest stay external declarations.
type Registry struct {
	mod   *llvmutil.Module
	types *dvtypes.Interner
	names Namer
	owns  func(class dvtypes.TypeID) bool
}

func New(mod *llvmutil.Module, typesIn *dvtypes.Interner, names Namer, owns func(dvtypes.TypeID) bool) *Registry {
	if owns == nil {
		owns = func(dvtypes.TypeID) bool { return true }
	}
	return &Registry{mod: mod, types: typesIn, names: names, owns: owns}
}

// ClassObjectType is the type of the class$ field, %rt.Class*.
func (r *Registry) ClassObjectType() types.Type {
	return types.NewPointer(r.mod.NamedOpaqueStruct(llvmutil.ClassTypeName))
}

// ClassObjectField returns the storage of class$ for the erasure of class.
// Owned fields start out null; the runtime stores the metadata object at startup.
func (r *Registry) ClassObjectField(class dvtypes.TypeID) *ir.Global {
	erased := r.erase(class)
	ct := r.ClassObjectType()
	g := r.mod.Global(r.names.StaticFieldName(erased, ClassObjectFieldName), ct)
	if r.owns(erased) && g.Init == nil {
		ptr, ok := ct.(*types.PointerType)
		if !ok {
			diag.Abort(diag.ICEMalformedType, "class object type %s is not a pointer", ct)
		}
		g.Init = constant.NewNull(ptr)
	}
	return g
}

// SuperTypesRef returns an i8** to the ancestor array of class, root first and
// class last. Each element is the address of an ancestor's class$ field.
func (r *Registry) SuperTypesRef(class dvtypes.TypeID) constant.Constant {
	erased := r.erase(class)
	chain := r.types.Ancestors(erased)
	arrT := types.NewArray(uint64(len(chain)), llvmutil.BytePtr())
	g := r.mod.Global(r.names.SuperTypesName(erased), arrT)
	if r.owns(erased) && g.Init == nil {
		elems := make([]constant.Constant, len(chain))
		for i, anc := range chain {
			elems[i] = constant.NewBitCast(r.ClassObjectField(anc), llvmutil.BytePtr())
		}
		g.Init = constant.NewArray(arrT, elems...)
		g.Immutable = true
	}
	return constant.NewBitCast(g, types.NewPointer(llvmutil.BytePtr()))
}

// Depth is the length of the ancestor chain, the class itself included.
func (r *Registry) Depth(class dvtypes.TypeID) int {
	return len(r.types.Ancestors(r.erase(class)))
}

func (r *Registry) erase(class dvtypes.TypeID) dvtypes.TypeID {
	erased := r.types.Erase(class)
	if _, ok := r.types.ClassInfo(erased); !ok {
		diag.Abort(diag.ICENotAClass, "no class metadata for %s", dvtypes.Label(r.types, class))
	}
	return erased
}
