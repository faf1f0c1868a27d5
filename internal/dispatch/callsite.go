package dispatch

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"dvgen/internal/llvmutil"
	dvtypes "dvgen/internal/types"
)

// AddressOfMethodSlot emits into b the address of method's slot in the vector
// vectorPtr points to, as seen through receiver's static type:
//
//	getelementptr %dv.R, %dv.R* %v, i32 0, i32 3, i32 <slot>
//
// vectorPtr may be any pointer; it is cast to the receiver's vector type first.
// The result is an i8**; callers load it and cast to the method's function type.
func (c *Context) AddressOfMethodSlot(b *ir.Block, vectorPtr value.Value, receiver dvtypes.TypeID, method dvtypes.MethodID) *ir.InstGetElementPtr {
	st := c.StructTypeRefNonOpaque(receiver)
	slot := c.methods.SlotIndex(c.erase(receiver), method)
	want := types.NewPointer(st)
	if !vectorPtr.Type().Equal(want) {
		vectorPtr = b.NewBitCast(vectorPtr, want)
	}
	return llvmutil.StructGEP(b, st, vectorPtr, 0, int(Methods), slot)
}
