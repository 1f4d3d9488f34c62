package morph

import (
	"morphkit/arbor/internal/traverse"
)

// Section is one unbranched run of points in a Morphology.
//
// The point arrays are mutable in place. A *Section stays usable after it is
// deleted from its morphology; it then reports itself as a root with no
// children.
type Section struct {
	PointLevel
	id    uint32
	typ   SectionType
	morph *Morphology
}

// ID returns the section id, unique within its morphology
func (s *Section) ID() uint32 { return s.id }

// Type returns the section type
func (s *Section) Type() SectionType { return s.typ }

// SetType changes the section type
func (s *Section) SetType(t SectionType) { s.typ = t }

// Morphology returns the container the section was created in
func (s *Section) Morphology() *Morphology { return s.morph }

// Parent returns the parent section, or an error wrapping ErrNoParent for roots
func (s *Section) Parent() (*Section, error) {
	return s.morph.parentOf(s.id)
}

// IsRoot reports whether the section has no live parent
func (s *Section) IsRoot() bool {
	return s.morph.isRoot(s.id)
}

// Children returns the child sections in append order
func (s *Section) Children() []*Section {
	return s.morph.childrenOf(s.id)
}

// AppendSection creates a child section. SectionUndefined inherits this section's type.
func (s *Section) AppendSection(pl PointLevel, t SectionType) (*Section, error) {
	return s.morph.AppendSection(s, pl, t)
}

// AppendCopy appends a copy of src (from any morphology) under this section
func (s *Section) AppendCopy(src *Section, recursive bool) (*Section, error) {
	return s.morph.appendCopy(s, src, recursive)
}

// Depth walks this section's subtree pre-order
func (s *Section) Depth() *traverse.Iterator[*Section] {
	return s.morph.tree().Depth(s)
}

// Breadth walks this section's subtree level by level
func (s *Section) Breadth() *traverse.Iterator[*Section] {
	return s.morph.tree().Breadth(s)
}

// Upstream walks from this section up to its root
func (s *Section) Upstream() *traverse.Iterator[*Section] {
	return s.morph.tree().Upstream(s)
}

// HasSameShape compares type and point data, ignoring ids and topology
func (s *Section) HasSameShape(other *Section) bool {
	return s.typ == other.typ && s.PointLevel.Equal(other.PointLevel)
}

// IsHeterogeneous reports whether any section downstream (or upstream when
// downstream is false) has a different type
func (s *Section) IsHeterogeneous(downstream bool) bool {
	it := s.Upstream()
	if downstream {
		it = s.Depth()
	}
	for other := range it.All() {
		if other.typ != s.typ {
			return true
		}
	}
	return false
}
