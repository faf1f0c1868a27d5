package types

import (
	"fmt"

	"fortio.org/safecast"

	"dvgen/internal/source"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Invalid TypeID
	Void    TypeID
	Bool    TypeID
	Byte    TypeID
	Short   TypeID
	Char    TypeID
	Int     TypeID
	Long    TypeID
	Float   TypeID
	Double  TypeID
}

// Interner provides stable TypeIDs for primitives, arrays and nominal class types.
//
// The interner is populated while a class table is loaded and is read-only afterwards:
// nothing on the dispatch-vector path interns new types, so one interner can be shared
// by compilation units running in parallel.
type Interner struct {
	Strings *source.Interner

	types     []Type
	index     map[typeKey]TypeID
	builtins  Builtins
	classes   []ClassInfo
	instances []InstanceInfo
	params    []TypeParamInfo
	methods   []MethodInfo
	byName    map[source.StringID]TypeID
	instIndex map[instanceKey]TypeID
	root      TypeID
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		Strings:   source.NewInterner(),
		index:     make(map[typeKey]TypeID, 64),
		byName:    make(map[source.StringID]TypeID, 32),
		instIndex: make(map[instanceKey]TypeID, 32),
	}
	// slot 0 of every side table is the invalid sentinel
	in.classes = append(in.classes, ClassInfo{})
	in.instances = append(in.instances, InstanceInfo{})
	in.params = append(in.params, TypeParamInfo{})
	in.methods = append(in.methods, MethodInfo{})

	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Byte = in.Intern(MakeInt(Width8))
	in.builtins.Short = in.Intern(MakeInt(Width16))
	in.builtins.Char = in.Intern(Type{Kind: KindChar, Width: Width16})
	in.builtins.Int = in.Intern(MakeInt(Width32))
	in.builtins.Long = in.Intern(MakeInt(Width64))
	in.builtins.Float = in.Intern(MakeFloat(Width32))
	in.builtins.Double = in.Intern(MakeFloat(Width64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided structural descriptor has a stable TypeID.
// Nominal kinds must go through RegisterClass / Instantiate / RegisterTypeParam.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len returns the number of interned types including the invalid sentinel.
func (in *Interner) Len() int {
	return len(in.types)
}

// ArrayOf interns T[].
func (in *Interner) ArrayOf(elem TypeID) TypeID {
	return in.Intern(MakeArray(elem))
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Width   Width
	Payload uint32
}

func slotOf(n int, what string) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s overflow: %w", what, err))
	}
	return slot
}
