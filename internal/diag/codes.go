package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// class table input
	HirInfo              Code = 1000
	HirParseFailed       Code = 1001
	HirDuplicateClass    Code = 1002
	HirUnknownType       Code = 1003
	HirBadTypeExpr       Code = 1004
	HirCyclicInheritance Code = 1005
	HirSuperIsInterface  Code = 1006
	HirImplementsClass   Code = 1007
	HirTypeArgCount      Code = 1008
	HirDuplicateMethod   Code = 1009
	HirEmptyName         Code = 1010
	HirFinalOverridden   Code = 1011
	HirExtendsFinal      Code = 1012
	HirUnsupportedFormat Code = 1013
	HirRootHasSuper      Code = 1014
	HirUnknownTypeParam  Code = 1015
	HirUnknownKey        Code = 1016

	// project configuration
	PrjInfo            Code = 2000
	PrjManifestInvalid Code = 2001
	PrjUnknownTarget   Code = 2002

	// internal compiler errors
	ICEInfo                Code = 9000
	ICEMissingMangledName  Code = 9001
	ICEMissingMethod       Code = 9002
	ICEMalformedType       Code = 9003
	ICECacheInconsistency  Code = 9004
	ICESymbolConflict      Code = 9005
	ICEVectorReinitialized Code = 9006
	ICEOpaqueType          Code = 9007
	ICENotAClass           Code = 9008
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	HirInfo:                "Class table information",
	HirParseFailed:         "Class table could not be decoded",
	HirDuplicateClass:      "Class declared more than once",
	HirUnknownType:         "Unknown type name",
	HirBadTypeExpr:         "Malformed type expression",
	HirCyclicInheritance:   "Cyclic inheritance",
	HirSuperIsInterface:    "Superclass is an interface",
	HirImplementsClass:     "Implemented type is not an interface",
	HirTypeArgCount:        "Wrong number of type arguments",
	HirDuplicateMethod:     "Method declared more than once with the same erased signature",
	HirEmptyName:           "Empty name",
	HirFinalOverridden:     "Final method overridden",
	HirExtendsFinal:        "Final class extended",
	HirUnsupportedFormat:   "Unsupported class table format",
	HirRootHasSuper:        "Root class declares a superclass",
	HirUnknownTypeParam:    "Unknown type parameter",
	HirUnknownKey:          "Unknown key in class table",
	PrjInfo:                "Project information",
	PrjManifestInvalid:     "Invalid dvgen.toml",
	PrjUnknownTarget:       "Unknown target triple",
	ICEInfo:                "Internal compiler error",
	ICEMissingMangledName:  "Missing mangled name",
	ICEMissingMethod:       "Missing method resolution data",
	ICEMalformedType:       "Malformed type information",
	ICECacheInconsistency:  "Cache inconsistency",
	ICESymbolConflict:      "Symbol redeclared with a different type",
	ICEVectorReinitialized: "Dispatch vector initialized twice",
	ICEOpaqueType:          "Opaque type used as size-complete",
	ICENotAClass:           "Dispatch vector requested for a non-class type",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("HIR%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
