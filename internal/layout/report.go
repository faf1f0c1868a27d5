package layout

import (
	"dvgen/internal/dispatch"
	"dvgen/internal/mangle"
	"dvgen/internal/resolve"
	"dvgen/internal/types"
)

// ComponentOffset is one component of a vector with its byte offset.
type ComponentOffset struct {
	Name   string `msgpack:"name" json:"name"`
	Offset int    `msgpack:"offset" json:"offset"`
}

// SlotReport describes one method slot.
type SlotReport struct {
	Index    int    `msgpack:"index" json:"index"`
	Offset   int    `msgpack:"offset" json:"offset"`
	Method   string `msgpack:"method" json:"method"`     // declaring class and signature
	Proc     string `msgpack:"proc" json:"proc"`         // mangled function symbol
	Override bool   `msgpack:"override" json:"override"` // slot inherited and filled by a different method
	Abstract bool   `msgpack:"abstract" json:"abstract"`
}

// ClassReport is the vector layout of one class as printed by `dvgen layout`.
type ClassReport struct {
	Class      string            `msgpack:"class" json:"class"`
	Unit       string            `msgpack:"unit" json:"unit"`
	VectorType string            `msgpack:"vector_type" json:"vector_type"`
	Global     string            `msgpack:"global" json:"global"`
	Size       int               `msgpack:"size" json:"size"`
	Align      int               `msgpack:"align" json:"align"`
	Components []ComponentOffset `msgpack:"components" json:"components"`
	Slots      []SlotReport      `msgpack:"slots" json:"slots"`
}

// Reporter builds ClassReports from one dispatch context.
type Reporter struct {
	Engine  *LayoutEngine
	Context *dispatch.Context
	Methods *resolve.Resolver
	Names   *mangle.Mangler
}

// Describe fills the vector type of class and reports its layout.
func (r *Reporter) Describe(class types.TypeID) (ClassReport, error) {
	in := r.Context.Types()
	erased := in.Erase(class)
	vec := r.Context.StructTypeRefNonOpaque(erased)
	vl, err := r.Engine.Vector(vec)
	if err != nil {
		return ClassReport{}, err
	}
	info, _ := in.ClassInfo(erased)
	rep := ClassReport{
		Class:      types.Label(in, erased),
		Unit:       in.Strings.MustLookup(info.Unit),
		VectorType: r.Names.VectorTypeName(erased),
		Global:     r.Names.VectorGlobal(erased),
		Size:       vl.Size,
		Align:      vl.Align,
	}
	for _, k := range dispatch.Components() {
		rep.Components = append(rep.Components, ComponentOffset{Name: k.String(), Offset: vl.Components[k]})
	}

	overridden := make(map[int]bool)
	for _, o := range r.Methods.Overrides(erased) {
		overridden[o.Slot] = true
	}
	for i, m := range r.Methods.SlotList(erased) {
		mi, _ := in.Method(m)
		rep.Slots = append(rep.Slots, SlotReport{
			Index:    i,
			Offset:   vl.SlotOffset(i),
			Method:   types.MethodLabel(in, m),
			Proc:     r.Names.ProcName(m),
			Override: overridden[i],
			Abstract: mi.Flags&types.MethodAbstract != 0,
		})
	}
	return rep, nil
}
