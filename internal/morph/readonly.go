package morph

import (
	"fmt"
	"slices"
)

// BuildReadOnly flattens the morphology into a snapshot. Sections are emitted
// depth-first across the root sections in their current order, so snapshot
// indices are positions in that walk rather than section ids.
func (m *Morphology) BuildReadOnly() (*Properties, error) {
	p := &Properties{
		Soma:        m.soma.PointLevel.Clone(),
		SomaType:    m.soma.Type,
		ER:          m.er.Clone(),
		Family:      m.family,
		Version:     m.version,
		Annotations: slices.Clone(m.annotations),
		Markers:     slices.Clone(m.markers),
	}
	if err := m.soma.Validate(); err != nil {
		return nil, fmt.Errorf("soma: %w", err)
	}

	withPerimeters := false
	for _, s := range m.sections {
		if len(s.Perimeters) > 0 {
			withPerimeters = true
			break
		}
	}

	newIDs := make(map[uint32]int, m.size())
	for s := range m.Depth().All() {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("section %d: %w", s.id, err)
		}
		if withPerimeters && len(s.Perimeters) != s.Len() {
			return nil, fmt.Errorf("%w: section %d has no perimeters while others do", ErrDataShape, s.id)
		}
		parent := -1
		if !s.IsRoot() {
			parent = newIDs[m.parent[s.id]]
		}
		newIDs[s.id] = len(p.Sections)
		p.Sections = append(p.Sections, SectionRecord{Offset: len(p.Points), Parent: parent})
		p.Types = append(p.Types, s.typ)
		p.PointLevel.Append(s.PointLevel, 0)
	}

	m.mito.flatten(&p.Mito)
	return p, nil
}

// flatten writes the mitochondria breadth-first, one root at a time
func (mt *Mitochondria) flatten(out *MitoLevel) {
	newIDs := make(map[uint32]int, mt.size())
	for _, root := range mt.roots {
		for s := range mt.tree().Breadth(root).All() {
			parent := -1
			if !s.IsRoot() {
				parent = newIDs[mt.parent[s.id]]
			}
			newIDs[s.id] = len(out.Sections)
			out.Sections = append(out.Sections, SectionRecord{Offset: out.Len(), Parent: parent})
			out.NeuriteIDs = append(out.NeuriteIDs, s.NeuriteIDs...)
			out.RelativePathLengths = append(out.RelativePathLengths, s.RelativePathLengths...)
			out.Diameters = append(out.Diameters, s.Diameters...)
		}
	}
}

// FromProperties hydrates a morphology from a snapshot. Section i of the
// snapshot becomes section id i, children keep table order, and no append
// warnings are emitted. Modifiers are applied afterwards.
func FromProperties(p *Properties, mods Modifier, opts ...Option) (*Morphology, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("hydrating morphology: %w", err)
	}
	m := New(append([]Option{WithFamily(p.Family)}, opts...)...)
	if p.Version.Format != "" {
		m.version = p.Version
	}

	sections := make([]*Section, p.SectionCount())
	for i := range sections {
		if p.Types[i] == SectionSoma {
			return nil, fmt.Errorf("hydrating section %d: %w", i, ErrSomaType)
		}
		sections[i] = &Section{
			PointLevel: p.SectionPoints(i).Clone(),
			id:         uint32(i),
			typ:        p.Types[i],
			morph:      m,
		}
	}
	for i, s := range sections {
		if parent := p.Parent(i); parent < 0 {
			m.addRoot(s)
		} else {
			m.addChild(uint32(parent), s)
		}
	}

	m.soma.PointLevel = p.Soma.Clone()
	m.soma.Type = p.SomaType

	mitoSections := make([]*MitoSection, len(p.Mito.Sections))
	for i := range mitoSections {
		start, end := p.MitoRange(i)
		mitoSections[i] = &MitoSection{
			MitoPointLevel: p.Mito.MitoPointLevel.Slice(start, end).Clone(),
			id:             uint32(i),
			owner:          m.mito,
		}
	}
	for i, s := range mitoSections {
		if parent := p.Mito.Sections[i].Parent; parent < 0 {
			m.mito.addRoot(s)
		} else {
			m.mito.addChild(uint32(parent), s)
		}
	}

	*m.er = p.ER.Clone()
	m.markers = slices.Clone(p.Markers)
	m.annotations = slices.Clone(p.Annotations)

	m.ApplyModifiers(mods)
	return m, nil
}
