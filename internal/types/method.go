package types

import (
	"slices"

	"dvgen/internal/source"
)

// MethodID identifies a method declaration inside the interner.
type MethodID uint32

// NoMethodID marks the absence of a method.
const NoMethodID MethodID = 0

// MethodFlags describe modifiers that decide whether a method gets a vector slot.
type MethodFlags uint8

const (
	MethodStatic MethodFlags = 1 << iota
	MethodAbstract
	MethodFinal
	MethodConstructor
)

// MethodInfo is a resolved method signature. Params exclude the receiver.
type MethodInfo struct {
	Name      source.StringID
	Container TypeID
	Params    []TypeID
	Result    TypeID
	Flags     MethodFlags
	Decl      source.Span
}

// IsVirtual reports whether the method is dispatched through the vector.
func (m *MethodInfo) IsVirtual() bool {
	return m != nil && m.Flags&(MethodStatic|MethodConstructor) == 0
}

// AddMethod registers a method declared by class and returns its MethodID.
func (in *Interner) AddMethod(class TypeID, m MethodInfo) MethodID {
	m.Container = class
	m.Params = slices.Clone(m.Params)
	in.methods = append(in.methods, m)
	id := MethodID(slotOf(len(in.methods)-1, "method info"))
	if info := in.classInfo(class); info != nil {
		info.Methods = append(info.Methods, id)
	}
	return id
}

// Method returns the declaration for id.
func (in *Interner) Method(id MethodID) (*MethodInfo, bool) {
	if id == NoMethodID || int(id) >= len(in.methods) {
		return nil, false
	}
	return &in.methods[id], true
}

// MethodName returns the method's simple name, or "?" for unknown ids.
func (in *Interner) MethodName(id MethodID) string {
	m, ok := in.Method(id)
	if !ok || in.Strings == nil {
		return "?"
	}
	name, ok := in.Strings.Lookup(m.Name)
	if !ok {
		return "?"
	}
	return name
}

// FindMethod returns the first method of class (not its ancestors) with the given name.
func (in *Interner) FindMethod(class TypeID, name string) (MethodID, bool) {
	info, ok := in.ClassInfo(class)
	if !ok {
		return NoMethodID, false
	}
	for _, id := range info.Methods {
		if in.MethodName(id) == name {
			return id, true
		}
	}
	return NoMethodID, false
}
