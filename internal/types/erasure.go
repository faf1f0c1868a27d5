package types

// Erase returns the canonical class identity of id: instances collapse onto their generic
// class and type parameters onto their erased bound (the root class when unbounded).
// Primitives and arrays are returned unchanged. Erase never interns new types.
func (in *Interner) Erase(id TypeID) TypeID {
	for range 16 {
		tt, ok := in.Lookup(id)
		if !ok {
			return id
		}
		switch tt.Kind {
		case KindInstance:
			inst, ok := in.InstanceInfo(id)
			if !ok {
				return id
			}
			id = inst.Class
		case KindTypeParam:
			p := in.typeParamInfo(id)
			if p == nil {
				return id
			}
			if p.Bound == NoTypeID {
				return in.root
			}
			id = p.Bound
		default:
			return id
		}
	}
	return id
}

// IsClassLike reports whether id erases to a nominal class.
func (in *Interner) IsClassLike(id TypeID) bool {
	tt, ok := in.Lookup(in.Erase(id))
	return ok && tt.Kind == KindClass
}

// SameErasure reports whether a and b denote the same type after erasure,
// element-wise for arrays.
func (in *Interner) SameErasure(a, b TypeID) bool {
	a, b = in.Erase(a), in.Erase(b)
	if a == b {
		return true
	}
	ta, okA := in.Lookup(a)
	tb, okB := in.Lookup(b)
	if !okA || !okB || ta.Kind != KindArray || tb.Kind != KindArray {
		return false
	}
	return in.SameErasure(ta.Elem, tb.Elem)
}

// Ancestors returns the erased superclass chain of class, root first and class last.
// Interfaces are not part of the chain.
func (in *Interner) Ancestors(class TypeID) []TypeID {
	var chain []TypeID
	seen := make(map[TypeID]struct{}, 8)
	for cur := in.Erase(class); cur != NoTypeID; {
		if _, dup := seen[cur]; dup {
			break
		}
		seen[cur] = struct{}{}
		chain = append(chain, cur)
		info := in.classInfo(cur)
		if info == nil {
			break
		}
		cur = in.Erase(info.Super)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// SuperOf returns the erased direct superclass of class.
func (in *Interner) SuperOf(class TypeID) TypeID {
	info := in.classInfo(in.Erase(class))
	if info == nil {
		return NoTypeID
	}
	return in.Erase(info.Super)
}
