package layout

import (
	"fortio.org/safecast"
	"github.com/llir/llvm/ir/types"
)

func (e *LayoutEngine) computeLayout(t types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	switch tt := t.(type) {
	case *types.PointerType:
		return e.ptrLayout(), nil

	case *types.IntType:
		switch {
		case tt.BitSize <= 8:
			return scalarLayoutBytes(1), nil
		case tt.BitSize <= 16:
			return scalarLayoutBytes(2), nil
		case tt.BitSize <= 32:
			return scalarLayoutBytes(4), nil
		case tt.BitSize <= 64:
			return TypeLayout{Size: 8, Align: e.i64Align()}, nil
		default:
			return TypeLayout{}, &LayoutError{Kind: LayoutErrUnsized, Type: tt.String()}
		}

	case *types.FloatType:
		switch tt.Kind {
		case types.FloatKindFloat:
			return scalarLayoutBytes(4), nil
		case types.FloatKindDouble:
			return TypeLayout{Size: 8, Align: e.i64Align()}, nil
		default:
			return TypeLayout{}, &LayoutError{Kind: LayoutErrUnsized, Type: tt.String()}
		}

	case *types.ArrayType:
		return e.arrayFixedLayout(tt, state)

	case *types.StructType:
		if tt.Opaque {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrOpaque, Type: tt.String()}
		}
		return e.structLayout(tt, state)

	default:
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsized, Type: t.String()}
	}
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func (e *LayoutEngine) i64Align() int {
	if e.Target.I64Align <= 0 {
		return 8
	}
	return e.Target.I64Align
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func (e *LayoutEngine) arrayFixedLayout(arr *types.ArrayType, state *layoutState) (TypeLayout, *LayoutError) {
	elemLayout, err := e.layoutOf(arr.ElemType, state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	elemAlign := max(elemLayout.Align, 1)
	stride := roundUp(elemLayout.Size, elemAlign)
	n, convErr := safecast.Conv[int](arr.Len)
	if convErr != nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: arr.String(), Err: convErr}
	}
	return TypeLayout{
		Size:  stride * n,
		Align: elemAlign,
	}, nil
}

func (e *LayoutEngine) structLayout(st *types.StructType, state *layoutState) (TypeLayout, *LayoutError) {
	if len(st.Fields) == 0 {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	offsets := make([]int, len(st.Fields))
	aligns := make([]int, len(st.Fields))

	size := 0
	align := 1
	for i, f := range st.Fields {
		fl, err := e.layoutOf(f, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := max(fl.Align, 1)
		if st.Packed {
			fAlign = 1
		}
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		size += fl.Size
		align = max(align, fAlign)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}, nil
}
