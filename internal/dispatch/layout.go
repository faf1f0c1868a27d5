package dispatch

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"dvgen/internal/llvmutil"
	dvtypes "dvgen/internal/types"
)

// Component is a field of every dispatch vector. Its value is the field index.
type Component uint8

const (
	ClassObject Component = iota
	InterfaceHashTable
	SuperTypes
	Methods

	ComponentCount
)

func (k Component) String() string {
	if k < ComponentCount {
		return components[k].name
	}
	return fmt.Sprintf("Component(%d)", k)
}

// Components lists the components in field order.
func Components() [ComponentCount]Component {
	var out [ComponentCount]Component
	for i := range out {
		out[i] = Component(i)
	}
	return out
}

type component struct {
	name string
	// typ must not force values of other classes' vectors.
	typ   func(c *Context, class dvtypes.TypeID) types.Type
	value func(c *Context, class dvtypes.TypeID) constant.Constant
}

// components is indexed by Component; its order is the vector layout.
var components = [ComponentCount]component{
	ClassObject: {
		name: "class_object",
		typ: func(c *Context, _ dvtypes.TypeID) types.Type {
			return types.NewPointer(c.rtti.ClassObjectType())
		},
		value: func(c *Context, class dvtypes.TypeID) constant.Constant {
			return c.rtti.ClassObjectField(class)
		},
	},
	InterfaceHashTable: {
		name: "interface_hash_table",
		typ: func(*Context, dvtypes.TypeID) types.Type {
			return llvmutil.BytePtr()
		},
		// filled in by the runtime at startup
		value: func(*Context, dvtypes.TypeID) constant.Constant {
			return constant.NewNull(llvmutil.BytePtr())
		},
	},
	SuperTypes: {
		name: "super_types",
		typ: func(*Context, dvtypes.TypeID) types.Type {
			return types.NewPointer(llvmutil.BytePtr())
		},
		value: func(c *Context, class dvtypes.TypeID) constant.Constant {
			return c.rtti.SuperTypesRef(class)
		},
	},
	Methods: {
		name: "methods",
		typ: func(c *Context, class dvtypes.TypeID) types.Type {
			n := len(c.methods.SlotList(class))
			return types.NewArray(uint64(n), llvmutil.BytePtr())
		},
		value: func(c *Context, class dvtypes.TypeID) constant.Constant {
			return c.MethodTable(class)
		},
	},
}

// BuildComponentValues materializes the four components of class in field order.
func (c *Context) BuildComponentValues(class dvtypes.TypeID) [ComponentCount]constant.Constant {
	erased := c.erase(class)
	var out [ComponentCount]constant.Constant
	for i := range components {
		out[i] = components[i].value(c, erased)
	}
	return out
}

// BuildComponentTypes returns the field types of the vector of class.
func (c *Context) BuildComponentTypes(class dvtypes.TypeID) [ComponentCount]types.Type {
	erased := c.erase(class)
	var out [ComponentCount]types.Type
	for i := range components {
		out[i] = components[i].typ(c, erased)
	}
	return out
}
