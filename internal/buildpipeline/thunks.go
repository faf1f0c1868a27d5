package buildpipeline

import (
	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"dvgen/internal/diag"
	"dvgen/internal/dispatch"
	"dvgen/internal/llvmutil"
	"dvgen/internal/mangle"
	"dvgen/internal/types"
)

// ThunkSuffix is appended to a method's symbol to name its virtual-call thunk.
const ThunkSuffix = "$vcall"

// EmitThunks defines, for every virtual method the classes declare,
//
//	define <ret> @<proc>$vcall(i8* %dv, <self> %self, <formals>...)
//
// which loads the method's slot from the vector %dv points to and calls
// through it. It returns the number of thunks defined.
func EmitThunks(dc *dispatch.Context, names *mangle.Mangler, classes []types.TypeID) int {
	in := dc.Types()
	n := 0
	for _, c := range classes {
		info, ok := in.ClassInfo(c)
		if !ok || info.IsInterface() {
			continue
		}
		for _, m := range info.Methods {
			mi, _ := in.Method(m)
			if !mi.IsVirtual() {
				continue
			}
			emitThunk(dc, names, c, m)
			n++
		}
	}
	return n
}

func emitThunk(dc *dispatch.Context, names *mangle.Mangler, class types.TypeID, method types.MethodID) *ir.Func {
	proc := names.ProcName(method)
	if proc == "" {
		diag.Abort(diag.ICEMissingMangledName, "no link name for %s", types.MethodLabel(dc.Types(), method))
	}
	sig := dc.MethodSignature(method)
	params := append([]lltypes.Type{llvmutil.BytePtr()}, sig.Params...)
	f := dc.Module().Function(proc+ThunkSuffix, lltypes.NewFunc(sig.RetType, params...))
	if len(f.Blocks) > 0 {
		diag.Abort(diag.ICESymbolConflict, "thunk @%s%s defined twice", proc, ThunkSuffix)
	}
	f.Params[0].SetName("dv")
	f.Params[1].SetName("self")

	entry := f.NewBlock("entry")
	slot := dc.AddressOfMethodSlot(entry, f.Params[0], class, method)
	raw := entry.NewLoad(llvmutil.BytePtr(), slot)
	target := entry.NewBitCast(raw, lltypes.NewPointer(sig))
	args := make([]value.Value, 0, len(f.Params)-1)
	for _, p := range f.Params[1:] {
		args = append(args, p)
	}
	call := entry.NewCall(target, args...)
	if sig.RetType.Equal(lltypes.Void) {
		entry.NewRet(nil)
	} else {
		entry.NewRet(call)
	}
	return f
}
