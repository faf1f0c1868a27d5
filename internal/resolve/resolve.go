// Package resolve orders the virtual methods of every class into vector slots.
//
// The slot list of a class C extending S is the slot list of S with each
// method C overrides replaced at the same index, followed by the remaining
// virtual methods C declares, in declaration order. A method overrides another
// when both have the same name and the same erased formal types. Static
// methods and constructors never get a slot.
//
// A Resolver is shared by all compilation units of one build; results are
// computed once per class.
package resolve

import (
	"strconv"
	"strings"

	"dvgen/internal/diag"
	"dvgen/internal/memo"
	"dvgen/internal/types"
)

type Resolver struct {
	types *types.Interner
	slots memo.Map[types.TypeID, []types.MethodID]
	index memo.Map[types.TypeID, map[string]int]
}

func New(typesIn *types.Interner) *Resolver {
	return &Resolver{
		types: typesIn,
		slots: memo.NewShared[types.TypeID, []types.MethodID](64),
		index: memo.NewShared[types.TypeID, map[string]int](64),
	}
}

// SlotList returns the ordered virtual methods of the erasure of class.
// The returned slice is shared and must not be modified.
func (r *Resolver) SlotList(class types.TypeID) []types.MethodID {
	erased := r.erasedClass(class)
	return r.slots.GetOrCompute(erased, func() []types.MethodID {
		return r.computeSlots(erased)
	})
}

func (r *Resolver) computeSlots(class types.TypeID) []types.MethodID {
	info, _ := r.types.ClassInfo(class)
	var out []types.MethodID
	if super := r.types.SuperOf(class); super != types.NoTypeID && !info.IsInterface() {
		out = append(out, r.SlotList(super)...)
	}
	for _, id := range info.Methods {
		m, ok := r.types.Method(id)
		if !ok {
			diag.Abort(diag.ICEMissingMethod, "class %s lists unknown method #%d", types.Label(r.types, class), id)
		}
		if !m.IsVirtual() {
			continue
		}
		key := r.Signature(id)
		replaced := false
		for i, prev := range out {
			if r.Signature(prev) == key {
				out[i] = id
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, id)
		}
	}
	return out
}

// SlotIndex returns the slot of method in the vector of receiver's erasure.
// method may be the receiver's own declaration or any declaration it overrides.
func (r *Resolver) SlotIndex(receiver types.TypeID, method types.MethodID) int {
	erased := r.erasedClass(receiver)
	idx := r.index.GetOrCompute(erased, func() map[string]int {
		list := r.SlotList(erased)
		m := make(map[string]int, len(list))
		for i, id := range list {
			m[r.Signature(id)] = i
		}
		return m
	})
	if mi, ok := r.types.Method(method); !ok || !mi.IsVirtual() {
		diag.Abort(diag.ICEMissingMethod, "method #%d has no vector slot", method)
	}
	slot, ok := idx[r.Signature(method)]
	if !ok {
		diag.Abort(diag.ICEMissingMethod, "no slot for %s in %s",
			types.MethodLabel(r.types, method), types.Label(r.types, erased))
	}
	return slot
}

// Signature is the override identity of a method: its name and erased formals.
func (r *Resolver) Signature(method types.MethodID) string {
	m, ok := r.types.Method(method)
	if !ok {
		diag.Abort(diag.ICEMissingMethod, "unknown method #%d", method)
	}
	var sb strings.Builder
	sb.WriteString(r.types.MethodName(method))
	sb.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteByte(',')
		}
		r.writeErased(&sb, p, 0)
	}
	sb.WriteByte(')')
	return sb.String()
}

func (r *Resolver) writeErased(sb *strings.Builder, id types.TypeID, depth int) {
	erased := r.types.Erase(id)
	tt, ok := r.types.Lookup(erased)
	if ok && tt.Kind == types.KindArray && depth < 16 {
		sb.WriteByte('[')
		r.writeErased(sb, tt.Elem, depth+1)
		return
	}
	sb.WriteString(strconv.FormatUint(uint64(erased), 10))
}

// Override records that Method replaced Overridden at Slot.
type Override struct {
	Slot       int
	Method     types.MethodID
	Overridden types.MethodID
}

// Overrides lists the slots class inherits from its superclass but fills differently.
func (r *Resolver) Overrides(class types.TypeID) []Override {
	erased := r.erasedClass(class)
	super := r.types.SuperOf(erased)
	if super == types.NoTypeID {
		return nil
	}
	own, base := r.SlotList(erased), r.SlotList(super)
	var out []Override
	for i := range base {
		if own[i] != base[i] {
			out = append(out, Override{Slot: i, Method: own[i], Overridden: base[i]})
		}
	}
	return out
}

// Overridden returns the inherited slot method that method replaces, if any.
func (r *Resolver) Overridden(method types.MethodID) (types.MethodID, bool) {
	m, ok := r.types.Method(method)
	if !ok || !m.IsVirtual() {
		return types.NoMethodID, false
	}
	super := r.types.SuperOf(m.Container)
	if super == types.NoTypeID {
		return types.NoMethodID, false
	}
	key := r.Signature(method)
	for _, id := range r.SlotList(super) {
		if r.Signature(id) == key {
			return id, true
		}
	}
	return types.NoMethodID, false
}

func (r *Resolver) erasedClass(id types.TypeID) types.TypeID {
	erased := r.types.Erase(id)
	if _, ok := r.types.ClassInfo(erased); !ok {
		diag.Abort(diag.ICENotAClass, "%s is not a class", types.Label(r.types, id))
	}
	return erased
}
