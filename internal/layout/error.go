package layout

import (
	"fmt"
	"strings"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrOpaque indicates a named struct that was never filled.
	LayoutErrOpaque LayoutErrorKind = iota + 1
	// LayoutErrRecursiveUnsized indicates a struct that contains itself by value.
	LayoutErrRecursiveUnsized
	LayoutErrUnsized
	LayoutErrLengthConversion
	LayoutErrNotVector
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  string   // LLVM spelling of the offending type
	Cycle []string // for LayoutErrRecursiveUnsized
	Err   error    // for LayoutErrLengthConversion
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrOpaque:
		return fmt.Sprintf("opaque type %s has no layout", e.Type)
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive type has infinite size (%s)", e.Type)
		}
		return fmt.Sprintf("recursive type has infinite size (cycle: %s)", strings.Join(e.Cycle, " -> "))
	case LayoutErrUnsized:
		return fmt.Sprintf("type %s has no size", e.Type)
	case LayoutErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("array length conversion error (%s): %v", e.Type, e.Err)
		}
		return fmt.Sprintf("array length conversion error (%s)", e.Type)
	case LayoutErrNotVector:
		return fmt.Sprintf("%s is not a dispatch vector type", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d type %s", e.Kind, e.Type)
	}
}
