// Package llvmutil is the IR utility layer: a github.com/llir/llvm module with
// get-or-declare symbol tables, named struct handling and the mapping from
// class-table types to LLVM types.
package llvmutil

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"dvgen/internal/diag"
	dvtypes "dvgen/internal/types"
)

// ObjectNamer names the opaque struct that stands for instances of a class.
type ObjectNamer interface {
	ObjectTypeName(class dvtypes.TypeID) string
}

// Module owns one LLVM module. It is not safe for concurrent use; each
// compilation unit has its own.
type Module struct {
	M *ir.Module

	types   *dvtypes.Interner
	namer   ObjectNamer
	structs map[string]*types.StructType
	globals map[string]*ir.Global
	funcs   map[string]*ir.Func
}

func NewModule(name string, typesIn *dvtypes.Interner, namer ObjectNamer) *Module {
	m := ir.NewModule()
	m.SourceFilename = name
	return &Module{
		M:       m,
		types:   typesIn,
		namer:   namer,
		structs: make(map[string]*types.StructType, 32),
		globals: make(map[string]*ir.Global, 32),
		funcs:   make(map[string]*ir.Func, 64),
	}
}

// SetTarget records the target triple and data layout strings.
func (m *Module) SetTarget(triple, dataLayout string) {
	m.M.TargetTriple = triple
	m.M.DataLayout = dataLayout
}

// NamedOpaqueStruct returns the named struct called name, creating it opaque.
func (m *Module) NamedOpaqueStruct(name string) *types.StructType {
	if name == "" {
		diag.Abort(diag.ICEMissingMangledName, "empty struct type name")
	}
	if t, ok := m.structs[name]; ok {
		return t
	}
	t := &types.StructType{Opaque: true}
	m.M.NewTypeDef(name, t)
	m.structs[name] = t
	return t
}

// LookupStruct returns a previously created named struct.
func (m *Module) LookupStruct(name string) (*types.StructType, bool) {
	t, ok := m.structs[name]
	return t, ok
}

// FillStructIfNeeded completes an opaque struct with the fields produced by
// fields and reports whether it did. A filled struct is never touched again.
func FillStructIfNeeded(t *types.StructType, fields func() []types.Type) bool {
	if !t.Opaque {
		return false
	}
	body := fields()
	// fields may have filled t through a cycle
	if !t.Opaque {
		return false
	}
	t.Fields = body
	t.Opaque = false
	return true
}

// Global returns the global called name, declaring it with content type
// content on first use. Asking again with a different content type is an ICE.
func (m *Module) Global(name string, content types.Type) *ir.Global {
	if name == "" {
		diag.Abort(diag.ICEMissingMangledName, "empty global name")
	}
	if g, ok := m.globals[name]; ok {
		if !g.ContentType.Equal(content) {
			diag.Abort(diag.ICESymbolConflict, "global @%s redeclared as %s, was %s", name, content, g.ContentType)
		}
		return g
	}
	g := m.M.NewGlobal(name, content)
	m.globals[name] = g
	return g
}

func (m *Module) LookupGlobal(name string) (*ir.Global, bool) {
	g, ok := m.globals[name]
	return g, ok
}

// Function returns the function called name, declaring it with sig on first use.
func (m *Module) Function(name string, sig *types.FuncType) *ir.Func {
	if name == "" {
		diag.Abort(diag.ICEMissingMangledName, "empty function name")
	}
	if f, ok := m.funcs[name]; ok {
		if !f.Sig.Equal(sig) {
			diag.Abort(diag.ICESymbolConflict, "function @%s redeclared as %s, was %s", name, sig, f.Sig)
		}
		return f
	}
	params := make([]*ir.Param, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = ir.NewParam("", p)
	}
	f := m.M.NewFunc(name, sig.RetType, params...)
	m.funcs[name] = f
	return f
}

// String prints the module. Globals that never got an initializer, such as
// vectors and class objects owned by another unit, print as external
// declarations.
func (m *Module) String() string {
	for _, g := range m.globals {
		switch {
		case g.Init == nil:
			g.Linkage = enum.LinkageExternal
		case g.Linkage == enum.LinkageExternal:
			g.Linkage = enum.LinkageNone
		}
	}
	return m.M.String()
}
