package dispatch

import (
	"github.com/llir/llvm/ir"

	"dvgen/internal/diag"
	"dvgen/internal/llvmutil"
	dvtypes "dvgen/internal/types"
)

// GetDispatchVectorFor returns the vector global of the erasure of t,
// declaring it on first use. It never computes component values.
func (c *Context) GetDispatchVectorFor(t dvtypes.TypeID) *ir.Global {
	erased := c.erase(t)
	return c.globals.GetOrCompute(erased, func() *ir.Global {
		name := c.mangler.VectorGlobal(erased)
		if name == "" {
			diag.Abort(diag.ICEMissingMangledName, "no vector symbol for %s", dvtypes.Label(c.types, erased))
		}
		g := c.mod.Global(name, c.StructTypeRef(erased))
		c.point("vector.declare", erased)
		return g
	})
}

// InitializeDispatchVectorFor fills the vector type of t and sets the vector
// initializer. It runs once per class; a second call is an internal error.
func (c *Context) InitializeDispatchVectorFor(t dvtypes.TypeID) {
	erased := c.erase(t)
	if _, done := c.initialized[erased]; done {
		diag.Abort(diag.ICEVectorReinitialized, "dispatch vector of %s initialized twice", dvtypes.Label(c.types, erased))
	}
	st := c.StructTypeRefNonOpaque(erased)
	g := c.GetDispatchVectorFor(erased)
	body := c.BuildComponentValues(erased)
	g.Init = llvmutil.NamedConstStruct(st, body[:])
	c.initialized[erased] = struct{}{}
	c.order = append(c.order, erased)
	c.point("vector.init", erased)
}

// IsInitialized reports whether the vector of t has its initializer.
func (c *Context) IsInitialized(t dvtypes.TypeID) bool {
	_, ok := c.initialized[c.erase(t)]
	return ok
}

// Initialized lists initialized classes in initialization order.
func (c *Context) Initialized() []dvtypes.TypeID {
	return append([]dvtypes.TypeID(nil), c.order...)
}

// ValueState is the lifecycle of a vector global.
type ValueState uint8

const (
	Unallocated ValueState = iota
	Declared
	Initialized
)

func (s ValueState) String() string {
	switch s {
	case Declared:
		return "declared"
	case Initialized:
		return "initialized"
	default:
		return "unallocated"
	}
}

// State reports where the vector global of t is in its lifecycle.
func (c *Context) State(t dvtypes.TypeID) ValueState {
	erased := c.erase(t)
	if _, ok := c.initialized[erased]; ok {
		return Initialized
	}
	if _, ok := c.globals.Get(erased); ok {
		return Declared
	}
	return Unallocated
}
