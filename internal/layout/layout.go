// Package layout computes target byte layouts of LLVM IR types, in particular
// the offsets of dispatch vector components and method slots.
package layout

import (
	"fortio.org/safecast"
	"github.com/llir/llvm/ir/types"

	"dvgen/internal/dispatch"
)

// TypeLayout is the ABI layout of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only:
	FieldOffsets []int
	FieldAligns  []int
}

// LayoutEngine computes memory layout for IR types.
type LayoutEngine struct {
	Target Target

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		cache:  newCache(),
	}
}

type layoutState struct {
	stack []*types.StructType
	index map[*types.StructType]int
}

func newLayoutState() *layoutState {
	return &layoutState{index: make(map[*types.StructType]int, 8)}
}

// LayoutOf computes and caches the layout of t.
func (e *LayoutEngine) LayoutOf(t types.Type) (TypeLayout, error) {
	if e == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	layout, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		return layout, err
	}
	return layout, nil
}

func (e *LayoutEngine) layoutOf(t types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	if cached, ok := e.cache.get(t); ok {
		return cached.Layout, cached.Err
	}
	st, isStruct := t.(*types.StructType)
	if isStruct {
		if idx, ok := state.index[st]; ok {
			cycle := make([]string, 0, len(state.stack)-idx+1)
			for _, s := range state.stack[idx:] {
				cycle = append(cycle, s.String())
			}
			cycle = append(cycle, st.String())
			err := &LayoutError{Kind: LayoutErrRecursiveUnsized, Type: st.String(), Cycle: cycle}
			return TypeLayout{Size: 0, Align: 1}, err
		}
		state.index[st] = len(state.stack)
		state.stack = append(state.stack, st)
	}
	layout, err := e.computeLayout(t, state)
	if isStruct {
		state.stack = state.stack[:len(state.stack)-1]
		delete(state.index, st)
		// opaque structs may be filled later
		if err != nil && err.Kind == LayoutErrOpaque {
			return layout, err
		}
	}
	e.cache.put(t, &cacheEntry{Layout: layout, Err: err})
	return layout, err
}

// SizeOf returns the size of a type in bytes.
func (e *LayoutEngine) SizeOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *LayoutEngine) AlignOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *LayoutEngine) FieldOffset(structT *types.StructType, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(structT)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, nil
	}
	return l.FieldOffsets[fieldIdx], nil
}

// VectorLayout is the byte layout of one dispatch vector.
type VectorLayout struct {
	Size       int
	Align      int
	Components [dispatch.ComponentCount]int // byte offset of each component
	SlotCount  int
	SlotSize   int
}

// SlotOffset returns the byte offset of method slot i from the vector start.
func (v VectorLayout) SlotOffset(i int) int {
	return v.Components[dispatch.Methods] + i*v.SlotSize
}

// Vector lays out a filled dispatch vector struct type.
func (e *LayoutEngine) Vector(vec *types.StructType) (VectorLayout, error) {
	if vec == nil {
		return VectorLayout{}, &LayoutError{Kind: LayoutErrNotVector, Type: "<nil>"}
	}
	if len(vec.Fields) != int(dispatch.ComponentCount) && !vec.Opaque {
		return VectorLayout{}, &LayoutError{Kind: LayoutErrNotVector, Type: vec.String()}
	}
	l, err := e.LayoutOf(vec)
	if err != nil {
		return VectorLayout{}, err
	}
	methods, ok := vec.Fields[dispatch.Methods].(*types.ArrayType)
	if !ok {
		return VectorLayout{}, &LayoutError{Kind: LayoutErrNotVector, Type: vec.String()}
	}
	n, convErr := safecast.Conv[int](methods.Len)
	if convErr != nil {
		return VectorLayout{}, &LayoutError{Kind: LayoutErrLengthConversion, Type: methods.String(), Err: convErr}
	}
	slot, err := e.LayoutOf(methods.ElemType)
	if err != nil {
		return VectorLayout{}, err
	}
	out := VectorLayout{
		Size:      l.Size,
		Align:     l.Align,
		SlotCount: n,
		SlotSize:  roundUp(slot.Size, slot.Align),
	}
	copy(out.Components[:], l.FieldOffsets)
	return out, nil
}
