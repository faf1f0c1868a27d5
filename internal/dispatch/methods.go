package dispatch

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"dvgen/internal/diag"
	"dvgen/internal/llvmutil"
	dvtypes "dvgen/internal/types"
)

// MethodTable builds the [N x i8*] methods component of class: every slot
// method declared in this module and cast to i8*.
func (c *Context) MethodTable(class dvtypes.TypeID) *constant.Array {
	slots := c.methods.SlotList(c.erase(class))
	ptrs := make([]constant.Constant, len(slots))
	for i, m := range slots {
		ptrs[i] = constant.NewBitCast(c.methodFunc(m), llvmutil.BytePtr())
	}
	return llvmutil.ConstArray(llvmutil.BytePtr(), ptrs)
}

// MethodSignature returns the LLVM function type of method.
func (c *Context) MethodSignature(method dvtypes.MethodID) *types.FuncType {
	mi, ok := c.types.Method(method)
	if !ok {
		diag.Abort(diag.ICEMissingMethod, "unknown method #%d", method)
	}
	return c.mod.FuncType(mi.Container, mi.Result, mi.Params)
}

func (c *Context) methodFunc(method dvtypes.MethodID) constant.Constant {
	name := c.mangler.ProcName(method)
	if name == "" {
		diag.Abort(diag.ICEMissingMangledName, "no link name for %s", dvtypes.MethodLabel(c.types, method))
	}
	return c.mod.Function(name, c.MethodSignature(method))
}
