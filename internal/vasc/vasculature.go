// Package vasc models vascular networks: sections joined by an arbitrary
// connectivity graph rather than a tree.
package vasc

import (
	"cmp"
	"fmt"
	"slices"

	"morphkit/arbor/internal/morph"
	"morphkit/arbor/internal/traverse"
	"morphkit/arbor/internal/warning"
)

// SectionType classifies a vessel section
type SectionType int

const (
	NotDefined SectionType = iota
	Vein
	Artery
	Venule
	Arteriole
	VenousCapillary
	ArterialCapillary
	Transitional
	Custom
)

var typeNames = [...]string{
	"not_defined", "vein", "artery", "venule", "arteriole",
	"venous_capillary", "arterial_capillary", "transitional", "custom",
}

func (t SectionType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("vascular_type(%d)", int(t))
	}
	return typeNames[t]
}

// Section is one vessel segment
type Section struct {
	morph.PointLevel
	id    uint32
	typ   SectionType
	owner *Vasculature
}

// ID returns the section id
func (s *Section) ID() uint32 { return s.id }

// Type returns the vessel type
func (s *Section) Type() SectionType { return s.typ }

// SetType changes the vessel type
func (s *Section) SetType(t SectionType) { s.typ = t }

// Predecessors returns the sections connected into s
func (s *Section) Predecessors() []*Section { return s.owner.Predecessors(s.id) }

// Successors returns the sections s connects into
func (s *Section) Successors() []*Section { return s.owner.Successors(s.id) }

// Neighbors returns predecessors followed by successors
func (s *Section) Neighbors() []*Section { return s.owner.Neighbors(s.id) }

// IsRoot reports whether nothing connects into s
func (s *Section) IsRoot() bool { return len(s.owner.predecessors[s.id]) == 0 }

// Vasculature is an editable vessel graph. It is not safe for concurrent mutation.
type Vasculature struct {
	counter      uint32
	sections     map[uint32]*Section
	predecessors map[uint32][]*Section
	successors   map[uint32][]*Section
	handler      warning.Handler
}

// New creates an empty vasculature. A nil handler logs through a default printer.
func New(h warning.Handler) *Vasculature {
	if h == nil {
		h = warning.NewPrinter(nil)
	}
	return &Vasculature{
		sections:     make(map[uint32]*Section),
		predecessors: make(map[uint32][]*Section),
		successors:   make(map[uint32][]*Section),
		handler:      h,
	}
}

// Len returns the number of sections
func (v *Vasculature) Len() int { return len(v.sections) }

// Section returns the section with the given id
func (v *Vasculature) Section(id uint32) (*Section, error) {
	s, ok := v.sections[id]
	if !ok {
		return nil, fmt.Errorf("vascular section %d: %w", id, morph.ErrUnknownID)
	}
	return s, nil
}

// Sections returns all sections ordered by id
func (v *Vasculature) Sections() []*Section {
	out := make([]*Section, 0, len(v.sections))
	for _, s := range v.sections {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Section) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Predecessors returns the sections with an edge into id
func (v *Vasculature) Predecessors(id uint32) []*Section { return slices.Clone(v.predecessors[id]) }

// Successors returns the sections id has an edge to
func (v *Vasculature) Successors(id uint32) []*Section { return slices.Clone(v.successors[id]) }

// Neighbors returns predecessors followed by successors
func (v *Vasculature) Neighbors(id uint32) []*Section {
	out := slices.Clone(v.predecessors[id])
	return append(out, v.successors[id]...)
}

// AppendSection adds an unconnected section
func (v *Vasculature) AppendSection(pl morph.PointLevel, t SectionType) (*Section, error) {
	if err := pl.Validate(); err != nil {
		return nil, fmt.Errorf("appending vascular section: %w", err)
	}
	s := &Section{PointLevel: pl, id: v.counter, typ: t, owner: v}
	if s.Empty() {
		if err := v.handler.Emit(warning.AppendingEmptySection,
			fmt.Sprintf("appending empty vascular section with id: %d", s.id)); err != nil {
			return nil, err
		}
	}
	v.sections[s.id] = s
	v.counter++
	return s, nil
}

// Connect adds the edge from -> to. Repeated edges are ignored. A mismatch
// between from's last point and to's first point is reported as a warning.
func (v *Vasculature) Connect(from, to *Section) error {
	if err := v.checkMember(from); err != nil {
		return err
	}
	if err := v.checkMember(to); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: section %d connected to itself", morph.ErrStructure, from.id)
	}
	if slices.Contains(v.successors[from.id], to) {
		return nil
	}
	if !from.Empty() && !to.Empty() && !v.handler.IsIgnored(warning.WrongDuplicate) {
		last := from.Len() - 1
		if from.Points[last] != to.Points[0] {
			msg := fmt.Sprintf("connecting vascular section %d to %d: end point %v does not match start point %v",
				from.id, to.id, from.Points[last], to.Points[0])
			if err := v.handler.Emit(warning.WrongDuplicate, msg); err != nil {
				return err
			}
		}
	}
	v.successors[from.id] = append(v.successors[from.id], to)
	v.predecessors[to.id] = append(v.predecessors[to.id], from)
	return nil
}

// Disconnect removes the edge from -> to if present
func (v *Vasculature) Disconnect(from, to *Section) {
	if from == nil || to == nil {
		return
	}
	v.successors[from.id] = slices.DeleteFunc(v.successors[from.id], func(s *Section) bool { return s == to })
	v.predecessors[to.id] = slices.DeleteFunc(v.predecessors[to.id], func(s *Section) bool { return s == from })
}

// DeleteSection removes s and every edge touching it. Non-members are ignored.
func (v *Vasculature) DeleteSection(s *Section) {
	if s == nil || v.sections[s.id] != s {
		return
	}
	for _, p := range v.predecessors[s.id] {
		v.successors[p.id] = slices.DeleteFunc(v.successors[p.id], func(x *Section) bool { return x == s })
	}
	for _, c := range v.successors[s.id] {
		v.predecessors[c.id] = slices.DeleteFunc(v.predecessors[c.id], func(x *Section) bool { return x == s })
	}
	delete(v.predecessors, s.id)
	delete(v.successors, s.id)
	delete(v.sections, s.id)
}

func (v *Vasculature) checkMember(s *Section) error {
	if s == nil {
		return fmt.Errorf("%w: nil vascular section", morph.ErrStructure)
	}
	if s.owner != v {
		return fmt.Errorf("vascular section %d: %w", s.id, morph.ErrForeignRef)
	}
	if v.sections[s.id] != s {
		return fmt.Errorf("vascular section %d: %w", s.id, morph.ErrUnknownID)
	}
	return nil
}

func (v *Vasculature) graph() traverse.Tree[*Section] {
	return traverse.Tree[*Section]{
		Children: func(s *Section) []*Section { return v.Neighbors(s.id) },
		Parent: func(s *Section) (*Section, bool) {
			preds := v.predecessors[s.id]
			if len(preds) == 0 {
				return nil, false
			}
			return preds[0], true
		},
		Graph: true,
	}
}

// Starts returns the sections with no predecessors, ordered by id
func (v *Vasculature) Starts() []*Section {
	var out []*Section
	for _, s := range v.Sections() {
		if s.IsRoot() {
			out = append(out, s)
		}
	}
	return out
}

// Depth walks the graph from every predecessor-free section, visiting each
// section once and following predecessors before successors
func (v *Vasculature) Depth() *traverse.Iterator[*Section] {
	return v.graph().Depth(v.Starts()...)
}

// Breadth is the level-by-level counterpart of Depth
func (v *Vasculature) Breadth() *traverse.Iterator[*Section] {
	return v.graph().Breadth(v.Starts()...)
}

// DepthFrom walks the graph reachable from s
func (v *Vasculature) DepthFrom(s *Section) *traverse.Iterator[*Section] {
	return v.graph().Depth(s)
}

// Upstream follows first predecessors from s until a start section or a
// section already seen
func (v *Vasculature) Upstream(s *Section) *traverse.Iterator[*Section] {
	return v.graph().Upstream(s)
}
