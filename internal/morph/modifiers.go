package morph

import (
	"cmp"

	"morphkit/arbor/internal/warning"
)

// ApplyModifiers runs the selected transforms in a fixed order:
// two points sections, soma sphere, no duplicates, nrn order
func (m *Morphology) ApplyModifiers(mods Modifier) {
	if mods&TwoPointsSections != 0 {
		TwoPointSections(m)
	}
	if mods&SomaSphere != 0 {
		SphereSoma(m)
	}
	if mods&NoDuplicates != 0 {
		NoDuplicatePoints(m)
	}
	if mods&NrnOrder != 0 {
		NrnOrdering(m)
	}
}

// TwoPointSections keeps only the first and last point of every section with
// at least two points
func TwoPointSections(m *Morphology) {
	for _, s := range m.sections {
		s.keepEnds()
	}
}

// NoDuplicatePoints drops the leading point of every non-root section
func NoDuplicatePoints(m *Morphology) {
	for _, s := range m.sections {
		if !s.IsRoot() {
			s.dropFirst()
		}
	}
}

// SphereSoma replaces a soma of two or more points by its centroid. The
// single diameter is twice the mean distance from the centroid.
func SphereSoma(m *Morphology) {
	soma := m.soma
	if soma.Len() < 2 {
		return
	}
	c := soma.Center()
	var sum float64
	for _, p := range soma.Points {
		sum += c.Distance(p)
	}
	radius := sum / float64(soma.Len())
	soma.PointLevel = PointLevel{
		Points:    []Point{c},
		Diameters: []float64{2 * radius},
	}
	soma.Type = SomaSinglePoint
}

// NrnOrdering stably sorts the root sections by type
func NrnOrdering(m *Morphology) {
	m.sortRoots(func(a, b *Section) int { return cmp.Compare(a.typ, b.typ) })
}

// RemoveUnifurcations merges every section that is the only child of its
// parent into that parent. Duplicate-point mismatches are reported along the
// way, and each merge leaves a single-child annotation on the parent.
func (m *Morphology) RemoveUnifurcations() error {
	it := m.Depth()
	for !it.Done() {
		s, _ := it.Value()
		if err := it.Next(); err != nil {
			return err
		}
		if s.IsRoot() {
			continue
		}
		parent, err := s.Parent()
		if err != nil {
			return err
		}
		matches := duplicateMatches(parent.PointLevel, s.PointLevel)
		if !matches && !m.handler.IsIgnored(warning.WrongDuplicate) {
			if err := m.handler.Emit(warning.WrongDuplicate, wrongDuplicateMessage(m.source, parent, s)); err != nil {
				return err
			}
		}
		if len(m.children[parent.id]) != 1 {
			continue
		}

		msg := onlyChildMessage(m.source, parent.id, s.id)
		if err := m.handler.Emit(warning.OnlyChild, msg); err != nil {
			return err
		}
		m.AddAnnotation(Annotation{
			Kind:       AnnotationSingleChild,
			SectionID:  parent.id,
			Details:    msg,
			PointLevel: parent.PointLevel.Clone(),
		})

		skip := 0
		if matches && !parent.Empty() {
			skip = 1
		}
		merged := s.PointLevel
		if parent.Len() > 0 && merged.Len() > skip &&
			(len(parent.Perimeters) == 0) != (len(merged.Perimeters) == 0) {
			// perimeters only survive when both halves carry them
			parent.Perimeters = nil
			merged.Perimeters = nil
		}
		parent.PointLevel.Append(merged, skip)
		m.DeleteSection(s, false)
	}
	return nil
}

// Unifurcations lists parent ids that have exactly one child
func (m *Morphology) Unifurcations() []uint32 {
	var out []uint32
	for _, s := range m.sorted() {
		if len(m.children[s.id]) == 1 {
			out = append(out, s.id)
		}
	}
	return out
}
