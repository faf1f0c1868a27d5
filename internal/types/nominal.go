package types

import (
	"slices"

	"dvgen/internal/source"
)

// ClassFlags describe declaration modifiers that matter to the backend.
type ClassFlags uint8

const (
	ClassInterface ClassFlags = 1 << iota
	ClassAbstract
	ClassFinal
)

// FieldInfo describes a field declared by a class.
type FieldInfo struct {
	Name   source.StringID
	Type   TypeID
	Static bool
}

// ClassInfo stores metadata for a nominal class or interface.
type ClassInfo struct {
	Name       source.StringID
	Decl       source.Span
	Flags      ClassFlags
	Unit       source.StringID // compilation unit that owns the class' vector
	TypeParams []TypeID
	Super      TypeID // NoTypeID for the root class and for interfaces
	Interfaces []TypeID
	Fields     []FieldInfo
	Methods    []MethodID // declaration order
}

// IsInterface reports whether the class is an interface declaration.
func (c *ClassInfo) IsInterface() bool {
	return c != nil && c.Flags&ClassInterface != 0
}

// TypeParamInfo stores metadata about a generic type parameter.
type TypeParamInfo struct {
	Name  source.StringID
	Owner TypeID // declaring class
	Index uint32
	Bound TypeID // NoTypeID means the root class
}

// InstanceInfo stores a generic class applied to arguments.
type InstanceInfo struct {
	Class TypeID
	Args  []TypeID
}

type instanceKey struct {
	Class TypeID
	Args  string
}

// RegisterClass allocates a nominal class slot and returns its TypeID.
// Registering the same name twice returns the existing TypeID and false.
func (in *Interner) RegisterClass(name source.StringID, decl source.Span, flags ClassFlags) (TypeID, bool) {
	if id, ok := in.byName[name]; ok {
		return id, false
	}
	in.classes = append(in.classes, ClassInfo{Name: name, Decl: decl, Flags: flags})
	slot := slotOf(len(in.classes)-1, "class info")
	id := in.internRaw(Type{Kind: KindClass, Payload: slot})
	in.byName[name] = id
	return id, true
}

// ClassByName finds a registered class by its fully qualified name.
func (in *Interner) ClassByName(name source.StringID) (TypeID, bool) {
	id, ok := in.byName[name]
	return id, ok
}

// ClassInfo returns metadata for the class TypeID. Instances resolve to their generic class.
func (in *Interner) ClassInfo(id TypeID) (*ClassInfo, bool) {
	info := in.classInfo(in.Erase(id))
	return info, info != nil
}

// Classes returns every registered class TypeID in registration order.
func (in *Interner) Classes() []TypeID {
	out := make([]TypeID, 0, len(in.classes)-1)
	for id, tt := range in.types {
		if tt.Kind == KindClass {
			out = append(out, TypeID(id)) // #nosec G115 -- bounded by internRaw
		}
	}
	return out
}

// SetSuper records the direct superclass (possibly an instance such as Base<String>).
func (in *Interner) SetSuper(id, super TypeID) {
	if info := in.classInfo(id); info != nil {
		info.Super = super
	}
}

// SetInterfaces records directly implemented interfaces.
func (in *Interner) SetInterfaces(id TypeID, ifaces []TypeID) {
	if info := in.classInfo(id); info != nil {
		info.Interfaces = slices.Clone(ifaces)
	}
}

// SetUnit assigns the class to a compilation unit.
func (in *Interner) SetUnit(id TypeID, unit source.StringID) {
	if info := in.classInfo(id); info != nil {
		info.Unit = unit
	}
}

// AddField appends a field declaration.
func (in *Interner) AddField(id TypeID, field FieldInfo) {
	if info := in.classInfo(id); info != nil {
		info.Fields = append(info.Fields, field)
	}
}

// SetRoot marks the class every other class ultimately extends.
func (in *Interner) SetRoot(id TypeID) {
	in.root = id
}

// Root returns the root class, or NoTypeID if none was set.
func (in *Interner) Root() TypeID {
	return in.root
}

// RegisterTypeParam allocates a type parameter of owner at position index.
func (in *Interner) RegisterTypeParam(name source.StringID, owner TypeID, index uint32) TypeID {
	in.params = append(in.params, TypeParamInfo{Name: name, Owner: owner, Index: index})
	slot := slotOf(len(in.params)-1, "type param info")
	id := in.internRaw(Type{Kind: KindTypeParam, Payload: slot})
	if info := in.classInfo(owner); info != nil {
		info.TypeParams = append(info.TypeParams, id)
	}
	return id
}

// SetTypeParamBound records the upper bound of a type parameter.
func (in *Interner) SetTypeParamBound(id, bound TypeID) {
	if info := in.typeParamInfo(id); info != nil {
		info.Bound = bound
	}
}

// TypeParamInfo returns metadata for a type parameter.
func (in *Interner) TypeParamInfo(id TypeID) (*TypeParamInfo, bool) {
	info := in.typeParamInfo(id)
	return info, info != nil
}

// Instantiate applies a generic class to arguments. Identical applications share one TypeID,
// and an application without arguments is the class itself.
func (in *Interner) Instantiate(class TypeID, args []TypeID) TypeID {
	if len(args) == 0 {
		return class
	}
	key := instanceKey{Class: class, Args: argsKey(args)}
	if id, ok := in.instIndex[key]; ok {
		return id
	}
	in.instances = append(in.instances, InstanceInfo{Class: class, Args: slices.Clone(args)})
	slot := slotOf(len(in.instances)-1, "instance info")
	id := in.internRaw(Type{Kind: KindInstance, Payload: slot})
	in.instIndex[key] = id
	return id
}

// InstanceInfo returns the generic class and arguments of an instance.
func (in *Interner) InstanceInfo(id TypeID) (*InstanceInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindInstance || tt.Payload == 0 || int(tt.Payload) >= len(in.instances) {
		return nil, false
	}
	return &in.instances[tt.Payload], true
}

func (in *Interner) classInfo(id TypeID) *ClassInfo {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClass {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.classes) {
		return nil
	}
	return &in.classes[tt.Payload]
}

func (in *Interner) typeParamInfo(id TypeID) *TypeParamInfo {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTypeParam {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.params) {
		return nil
	}
	return &in.params[tt.Payload]
}

func argsKey(args []TypeID) string {
	buf := make([]byte, 0, len(args)*4)
	for _, a := range args {
		buf = append(buf, byte(a), byte(a>>8), byte(a>>16), byte(a>>24))
	}
	return string(buf)
}
