package morph

import (
	"fmt"
	"slices"
)

// SectionRecord locates a section in a snapshot: the index of its first
// point and the positional index of its parent (-1 for roots)
type SectionRecord struct {
	Offset int `json:"offset"`
	Parent int `json:"parent"`
}

// MitoLevel is the flattened mitochondria forest
type MitoLevel struct {
	MitoPointLevel
	Sections []SectionRecord
}

// Properties is the flattened, read-optimised form of a morphology. Section
// i owns points [Sections[i].Offset, Sections[i+1].Offset). Codecs read and
// write this form.
type Properties struct {
	PointLevel
	Sections []SectionRecord
	Types    []SectionType

	Soma     PointLevel
	SomaType SomaType

	Mito MitoLevel
	ER   EndoplasmicReticulum

	Family      CellFamily
	Version     Version
	Annotations []Annotation
	Markers     []Marker

	children map[int][]int
}

// SectionCount returns the number of sections
func (p *Properties) SectionCount() int { return len(p.Sections) }

// Range returns the half-open point range of section i
func (p *Properties) Range(i int) (int, int) {
	start := p.Sections[i].Offset
	end := len(p.Points)
	if i+1 < len(p.Sections) {
		end = p.Sections[i+1].Offset
	}
	return start, end
}

// SectionPoints returns a window onto section i's point data
func (p *Properties) SectionPoints(i int) PointLevel {
	start, end := p.Range(i)
	return p.PointLevel.Slice(start, end)
}

// Parent returns the parent index of section i, -1 for roots
func (p *Properties) Parent(i int) int { return p.Sections[i].Parent }

// Children returns the indices of section i's children in table order
func (p *Properties) Children(i int) []int {
	if p.children == nil {
		p.children = make(map[int][]int)
		for j, s := range p.Sections {
			if s.Parent >= 0 {
				p.children[s.Parent] = append(p.children[s.Parent], j)
			}
		}
	}
	return p.children[i]
}

// Roots returns the indices of root sections in table order
func (p *Properties) Roots() []int {
	var roots []int
	for i, s := range p.Sections {
		if s.Parent < 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// MitoRange returns the half-open range of mitochondrial section i
func (p *Properties) MitoRange(i int) (int, int) {
	start := p.Mito.Sections[i].Offset
	end := p.Mito.Len()
	if i+1 < len(p.Mito.Sections) {
		end = p.Mito.Sections[i+1].Offset
	}
	return start, end
}

// Validate checks array lengths, offsets and parent links
func (p *Properties) Validate() error {
	if err := p.PointLevel.Validate(); err != nil {
		return err
	}
	if err := p.Soma.Validate(); err != nil {
		return fmt.Errorf("soma: %w", err)
	}
	if len(p.Types) != len(p.Sections) {
		return fmt.Errorf("%w: %d sections but %d types", ErrDataShape, len(p.Sections), len(p.Types))
	}
	if err := validateTable(p.Sections, len(p.Points)); err != nil {
		return err
	}
	if err := p.Mito.Validate(); err != nil {
		return fmt.Errorf("mitochondria: %w", err)
	}
	if err := validateTable(p.Mito.Sections, p.Mito.Len()); err != nil {
		return fmt.Errorf("mitochondria: %w", err)
	}
	if err := p.ER.Validate(); err != nil {
		return err
	}
	return nil
}

// validateTable checks monotonic offsets and acyclic in-range parents
func validateTable(sections []SectionRecord, points int) error {
	for i, s := range sections {
		if s.Offset < 0 || s.Offset > points {
			return fmt.Errorf("%w: section %d offset %d outside %d points", ErrDataShape, i, s.Offset, points)
		}
		if i > 0 && s.Offset < sections[i-1].Offset {
			return fmt.Errorf("%w: section %d offset %d precedes previous offset", ErrDataShape, i, s.Offset)
		}
		if s.Parent < -1 || s.Parent >= len(sections) || s.Parent == i {
			return fmt.Errorf("%w: section %d has invalid parent %d", ErrStructure, i, s.Parent)
		}
	}
	state := make([]uint8, len(sections))
	for i := range sections {
		var chain []int
		j := i
		for j >= 0 && state[j] == 0 {
			state[j] = 1
			chain = append(chain, j)
			j = sections[j].Parent
		}
		if j >= 0 && state[j] == 1 {
			return fmt.Errorf("%w: parent cycle through section %d", ErrStructure, j)
		}
		for _, c := range chain {
			state[c] = 2
		}
	}
	return nil
}

// Equal compares the neurite, soma and mitochondria arrays
func (p *Properties) Equal(other *Properties) bool {
	return p.PointLevel.Equal(other.PointLevel) &&
		slices.Equal(p.Sections, other.Sections) &&
		slices.Equal(p.Types, other.Types) &&
		p.Soma.Equal(other.Soma) &&
		p.SomaType == other.SomaType &&
		p.Mito.MitoPointLevel.Equal(other.Mito.MitoPointLevel) &&
		slices.Equal(p.Mito.Sections, other.Mito.Sections)
}
