// Package testkit checks structural invariants of emitted dispatch vectors.
// The checks run in tests and behind `dvgen build --check`.
package testkit

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"

	"dvgen/internal/diag"
	"dvgen/internal/dispatch"
	"dvgen/internal/resolve"
	"dvgen/internal/types"
)

// CheckPrefixCompatible verifies that the vector of class starts with the
// vector of its superclass:
// 1) the first three component types are identical
// 2) the methods array is at least as long as the superclass one
// 3) every inherited slot holds a method with the superclass slot's signature
func CheckPrefixCompatible(dc *dispatch.Context, res *resolve.Resolver, class types.TypeID) (err error) {
	defer diag.Recover(&err)
	in := dc.Types()
	erased := in.Erase(class)
	super := in.SuperOf(erased)
	if super == types.NoTypeID {
		return nil
	}
	label := types.Label(in, erased)
	own := dc.BuildComponentTypes(erased)
	base := dc.BuildComponentTypes(super)
	for _, k := range dispatch.Components() {
		if k == dispatch.Methods {
			continue
		}
		if !own[k].Equal(base[k]) {
			return fmt.Errorf("%s: component %s is %s, superclass has %s", label, k, own[k], base[k])
		}
	}
	ownArr, _ := own[dispatch.Methods].(*lltypes.ArrayType)
	baseArr, _ := base[dispatch.Methods].(*lltypes.ArrayType)
	if ownArr == nil || baseArr == nil {
		return fmt.Errorf("%s: methods component is not an array", label)
	}
	if ownArr.Len < baseArr.Len {
		return fmt.Errorf("%s: %d method slots, superclass has %d", label, ownArr.Len, baseArr.Len)
	}
	ownSlots, baseSlots := res.SlotList(erased), res.SlotList(super)
	for i, m := range baseSlots {
		if got, want := res.Signature(ownSlots[i]), res.Signature(m); got != want {
			return fmt.Errorf("%s: slot %d holds %s, superclass slot holds %s", label, i, got, want)
		}
	}
	return nil
}

// CheckVectorLayout verifies the initialized vector global of class:
// 1) the global's content type is the class' named vector type
// 2) the type has one field per component and slot-count methods
// 3) the initializer is a struct whose methods are function addresses
func CheckVectorLayout(dc *dispatch.Context, res *resolve.Resolver, class types.TypeID) (err error) {
	defer diag.Recover(&err)
	in := dc.Types()
	erased := in.Erase(class)
	label := types.Label(in, erased)
	if !dc.IsInitialized(erased) {
		return fmt.Errorf("%s: vector is not initialized", label)
	}
	g := dc.GetDispatchVectorFor(erased)
	vec := dc.StructTypeRef(erased)
	if g.ContentType != vec {
		return fmt.Errorf("%s: global %s has type %s, want %s", label, g.Ident(), g.ContentType, vec)
	}
	if vec.Opaque || len(vec.Fields) != int(dispatch.ComponentCount) {
		return fmt.Errorf("%s: vector type %s has %d fields", label, vec, len(vec.Fields))
	}
	slots := res.SlotList(erased)
	arrT, ok := vec.Fields[dispatch.Methods].(*lltypes.ArrayType)
	if !ok || arrT.Len != uint64(len(slots)) {
		return fmt.Errorf("%s: methods field %s, want %d slots", label, vec.Fields[dispatch.Methods], len(slots))
	}
	init, ok := g.Init.(*constant.Struct)
	if !ok || len(init.Fields) != int(dispatch.ComponentCount) {
		return fmt.Errorf("%s: initializer is %T", label, g.Init)
	}
	arr, ok := init.Fields[dispatch.Methods].(*constant.Array)
	if !ok || len(arr.Elems) != len(slots) {
		return fmt.Errorf("%s: methods initializer is %T", label, init.Fields[dispatch.Methods])
	}
	for i, e := range arr.Elems {
		bc, ok := e.(*constant.ExprBitCast)
		if !ok {
			return fmt.Errorf("%s: slot %d is %T", label, i, e)
		}
		if _, ok := bc.From.(*ir.Func); !ok {
			return fmt.Errorf("%s: slot %d points at %T", label, i, bc.From)
		}
	}
	return nil
}
