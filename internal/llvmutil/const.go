package llvmutil

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"dvgen/internal/diag"
)

// ConstArray builds [len(elems) x elem].
func ConstArray(elem types.Type, elems []constant.Constant) *constant.Array {
	t := types.NewArray(uint64(len(elems)), elem)
	return constant.NewArray(t, elems...)
}

// NamedConstStruct builds a constant of the filled struct t.
func NamedConstStruct(t *types.StructType, fields []constant.Constant) *constant.Struct {
	if t.Opaque {
		diag.Abort(diag.ICEOpaqueType, "constant of opaque struct %%%s", t.Name())
	}
	if len(fields) != len(t.Fields) {
		diag.Abort(diag.ICEMalformedType, "struct %%%s has %d fields, got %d values", t.Name(), len(t.Fields), len(fields))
	}
	for i, f := range fields {
		if !f.Type().Equal(t.Fields[i]) {
			diag.Abort(diag.ICEMalformedType, "struct %%%s field %d is %s, got %s", t.Name(), i, t.Fields[i], f.Type())
		}
	}
	return constant.NewStruct(t, fields...)
}

// I32 is an i32 constant.
func I32(v int64) *constant.Int {
	return constant.NewInt(types.I32, v)
}

// StructGEP emits getelementptr elem, elem* ptr, i32 path[0], i32 path[1], ...
func StructGEP(b *ir.Block, elem types.Type, ptr value.Value, path ...int) *ir.InstGetElementPtr {
	indices := make([]value.Value, len(path))
	for i, p := range path {
		indices[i] = I32(int64(p))
	}
	return b.NewGetElementPtr(elem, ptr, indices...)
}
