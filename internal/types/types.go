package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindInt
	KindChar
	KindFloat
	KindArray
	KindClass     // nominal class or interface declaration (the raw, erased form)
	KindInstance  // generic class applied to type arguments
	KindTypeParam // type variable of a generic class or method
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "boolean"
	case KindInt:
		return "int"
	case KindChar:
		return "char"
	case KindFloat:
		return "float"
	case KindArray:
		return "array"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	case KindTypeParam:
		return "typeparam"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats.
type Width uint8

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // arrays
	Width   Width  // numeric primitives
	Payload uint32 // slot in the class/instance/param side tables
}

// IsReference reports whether values of the kind are heap references.
func (t Type) IsReference() bool {
	switch t.Kind {
	case KindArray, KindClass, KindInstance, KindTypeParam:
		return true
	default:
		return false
	}
}

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeArray describes T[].
func MakeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem}
}
