// Package dispatch builds per-class dispatch vectors.
//
// A dispatch vector is one global aggregate per erased class:
//
//	%dv.C = type { %rt.Class**, i8*, i8**, [N x i8*] }
//	               class object  itable  super types  methods
//
// The component order is fixed for every class, and the methods array of a
// subclass starts with the methods array of its superclass, so a call through
// a base-typed receiver reads the same slot whatever the dynamic class is.
//
// Types are built in two phases. StructTypeRef hands out a named opaque type
// and GetDispatchVectorFor a declared global; both are always immediately
// available, which is how classes that reference each other's vectors are
// built without recursion. StructTypeRefNonOpaque and
// InitializeDispatchVectorFor complete them later, once per class.
//
// Every cache lives in a Context, one per emitted module. A Context is not
// safe for concurrent use.
package dispatch

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"dvgen/internal/llvmutil"
	"dvgen/internal/memo"
	"dvgen/internal/trace"
	dvtypes "dvgen/internal/types"
)

// Mangler supplies deterministic symbol names. An empty result means the
// name is unknown, which is an internal error.
type Mangler interface {
	VectorTypeName(class dvtypes.TypeID) string
	VectorGlobal(class dvtypes.TypeID) string
	ProcName(method dvtypes.MethodID) string
}

// MethodResolver orders virtual methods into slots.
type MethodResolver interface {
	SlotList(class dvtypes.TypeID) []dvtypes.MethodID
	SlotIndex(receiver dvtypes.TypeID, method dvtypes.MethodID) int
}

// RTTI supplies the class metadata symbols a vector points to.
type RTTI interface {
	ClassObjectType() types.Type
	ClassObjectField(class dvtypes.TypeID) *ir.Global
	SuperTypesRef(class dvtypes.TypeID) constant.Constant
}

type Config struct {
	Types   *dvtypes.Interner
	Module  *llvmutil.Module
	Mangler Mangler
	Methods MethodResolver
	RTTI    RTTI
	Tracer  trace.Tracer
	// Span is the trace span class events are attached to.
	Span uint64
}

type Context struct {
	types   *dvtypes.Interner
	mod     *llvmutil.Module
	mangler Mangler
	methods MethodResolver
	rtti    RTTI
	tracer  trace.Tracer
	span    uint64

	structs memo.Map[dvtypes.TypeID, *types.StructType]
	globals memo.Map[dvtypes.TypeID, *ir.Global]
	// initialized is the one-shot marker of InitializeDispatchVectorFor.
	initialized map[dvtypes.TypeID]struct{}
	order       []dvtypes.TypeID
}

func NewContext(cfg Config) *Context {
	tr := cfg.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	return &Context{
		types:       cfg.Types,
		mod:         cfg.Module,
		mangler:     cfg.Mangler,
		methods:     cfg.Methods,
		rtti:        cfg.RTTI,
		tracer:      tr,
		span:        cfg.Span,
		structs:     memo.NewLocal[dvtypes.TypeID, *types.StructType](32),
		globals:     memo.NewLocal[dvtypes.TypeID, *ir.Global](32),
		initialized: make(map[dvtypes.TypeID]struct{}, 32),
	}
}

// Module returns the module vectors are emitted into.
func (c *Context) Module() *llvmutil.Module { return c.mod }

// Types returns the class table.
func (c *Context) Types() *dvtypes.Interner { return c.types }

func (c *Context) point(name string, class dvtypes.TypeID) {
	if !c.tracer.Enabled() {
		return
	}
	trace.Point(c.tracer, trace.ScopeClass, name, dvtypes.Label(c.types, class), c.span)
}
