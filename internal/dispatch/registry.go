package dispatch

import (
	"github.com/llir/llvm/ir/types"

	"dvgen/internal/diag"
	"dvgen/internal/llvmutil"
	dvtypes "dvgen/internal/types"
)

// StructTypeRef returns the vector type of the erasure of t, possibly still opaque.
func (c *Context) StructTypeRef(t dvtypes.TypeID) *types.StructType {
	erased := c.erase(t)
	return c.structs.GetOrCompute(erased, func() *types.StructType {
		name := c.mangler.VectorTypeName(erased)
		if name == "" {
			diag.Abort(diag.ICEMissingMangledName, "no vector type name for %s", dvtypes.Label(c.types, erased))
		}
		return c.mod.NamedOpaqueStruct(name)
	})
}

// StructTypeRefNonOpaque returns the vector type of t with its fields filled.
func (c *Context) StructTypeRefNonOpaque(t dvtypes.TypeID) *types.StructType {
	erased := c.erase(t)
	st := c.StructTypeRef(erased)
	filled := llvmutil.FillStructIfNeeded(st, func() []types.Type {
		fields := c.BuildComponentTypes(erased)
		return fields[:]
	})
	if filled {
		c.point("vector.fill", erased)
	}
	return st
}

// IsFilled reports whether the vector type of t has its fields.
func (c *Context) IsFilled(t dvtypes.TypeID) bool {
	st, ok := c.structs.Get(c.erase(t))
	return ok && !st.Opaque
}

func (c *Context) erase(t dvtypes.TypeID) dvtypes.TypeID {
	erased := c.types.Erase(t)
	info, ok := c.types.ClassInfo(erased)
	if !ok {
		diag.Abort(diag.ICENotAClass, "%s has no dispatch vector", dvtypes.Label(c.types, t))
	}
	if info.IsInterface() {
		diag.Abort(diag.ICENotAClass, "interface %s has no dispatch vector", dvtypes.Label(c.types, t))
	}
	return erased
}
