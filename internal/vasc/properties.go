package vasc

import (
	"cmp"
	"fmt"
	"slices"

	"morphkit/arbor/internal/morph"
	"morphkit/arbor/internal/warning"
)

// Properties is the flattened vasculature: section i owns points
// [Offsets[i], Offsets[i+1]) and Connectivity lists directed edges between
// section indices
type Properties struct {
	morph.PointLevel
	Offsets      []int
	Types        []SectionType
	Connectivity [][2]uint32
}

// Range returns the point range of section i
func (p *Properties) Range(i int) (int, int) {
	end := len(p.Points)
	if i+1 < len(p.Offsets) {
		end = p.Offsets[i+1]
	}
	return p.Offsets[i], end
}

// Validate checks array lengths, offsets and edge endpoints
func (p *Properties) Validate() error {
	if err := p.PointLevel.Validate(); err != nil {
		return err
	}
	if len(p.Types) != len(p.Offsets) {
		return fmt.Errorf("%w: %d sections but %d types", morph.ErrDataShape, len(p.Offsets), len(p.Types))
	}
	for i, off := range p.Offsets {
		if off < 0 || off > len(p.Points) || (i > 0 && off < p.Offsets[i-1]) {
			return fmt.Errorf("%w: section %d has bad offset %d", morph.ErrDataShape, i, off)
		}
	}
	for _, e := range p.Connectivity {
		if int(e[0]) >= len(p.Offsets) || int(e[1]) >= len(p.Offsets) {
			return fmt.Errorf("%w: connection %d -> %d out of range", morph.ErrStructure, e[0], e[1])
		}
	}
	return nil
}

// BuildReadOnly flattens the vasculature in id order
func (v *Vasculature) BuildReadOnly() (*Properties, error) {
	p := &Properties{}
	index := make(map[uint32]uint32, len(v.sections))
	sections := v.Sections()
	for i, s := range sections {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("vascular section %d: %w", s.id, err)
		}
		index[s.id] = uint32(i)
		p.Offsets = append(p.Offsets, len(p.Points))
		p.Types = append(p.Types, s.typ)
		p.PointLevel.Append(s.PointLevel, 0)
	}
	for _, s := range sections {
		for _, succ := range v.successors[s.id] {
			p.Connectivity = append(p.Connectivity, [2]uint32{index[s.id], index[succ.id]})
		}
	}
	slices.SortFunc(p.Connectivity, func(a, b [2]uint32) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	return p, nil
}

// FromProperties hydrates a vasculature, keeping section indices as ids
func FromProperties(p *Properties, h warning.Handler) (*Vasculature, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("hydrating vasculature: %w", err)
	}
	v := New(h)
	for i := range p.Offsets {
		start, end := p.Range(i)
		s := &Section{PointLevel: p.PointLevel.Slice(start, end).Clone(), id: uint32(i), typ: p.Types[i], owner: v}
		v.sections[s.id] = s
	}
	v.counter = uint32(len(p.Offsets))
	for _, e := range p.Connectivity {
		from, to := v.sections[e[0]], v.sections[e[1]]
		if from == to || slices.Contains(v.successors[from.id], to) {
			continue
		}
		v.successors[from.id] = append(v.successors[from.id], to)
		v.predecessors[to.id] = append(v.predecessors[to.id], from)
	}
	return v, nil
}
