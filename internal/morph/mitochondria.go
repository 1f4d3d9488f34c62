package morph

import (
	"fmt"

	"morphkit/arbor/internal/traverse"
)

// MitoPointLevel locates mitochondrial points along neurite sections.
// Each entry names a neurite section, a relative path length in [0, 1]
// along it, and a diameter.
type MitoPointLevel struct {
	NeuriteIDs          []uint32
	RelativePathLengths []float64
	Diameters           []float64
}

// Validate checks the parallel-array invariant
func (pl MitoPointLevel) Validate() error {
	n := len(pl.NeuriteIDs)
	if len(pl.RelativePathLengths) != n || len(pl.Diameters) != n {
		return fmt.Errorf("%w: mitochondrial section has %d neurite ids, %d path lengths and %d diameters",
			ErrDataShape, n, len(pl.RelativePathLengths), len(pl.Diameters))
	}
	return nil
}

// Len returns the number of entries
func (pl MitoPointLevel) Len() int { return len(pl.NeuriteIDs) }

// Clone deep-copies the arrays
func (pl MitoPointLevel) Clone() MitoPointLevel {
	return MitoPointLevel{
		NeuriteIDs:          append([]uint32(nil), pl.NeuriteIDs...),
		RelativePathLengths: append([]float64(nil), pl.RelativePathLengths...),
		Diameters:           append([]float64(nil), pl.Diameters...),
	}
}

// Slice returns the half-open window [start, end)
func (pl MitoPointLevel) Slice(start, end int) MitoPointLevel {
	return MitoPointLevel{
		NeuriteIDs:          pl.NeuriteIDs[start:end:end],
		RelativePathLengths: pl.RelativePathLengths[start:end:end],
		Diameters:           pl.Diameters[start:end:end],
	}
}

// Equal compares the arrays element-wise
func (pl MitoPointLevel) Equal(other MitoPointLevel) bool {
	if pl.Len() != other.Len() {
		return false
	}
	for i := range pl.NeuriteIDs {
		if pl.NeuriteIDs[i] != other.NeuriteIDs[i] ||
			pl.RelativePathLengths[i] != other.RelativePathLengths[i] ||
			pl.Diameters[i] != other.Diameters[i] {
			return false
		}
	}
	return true
}

// MitoSection is one unbranched piece of a mitochondrion
type MitoSection struct {
	MitoPointLevel
	id    uint32
	owner *Mitochondria
}

// ID returns the section id, unique within its container
func (s *MitoSection) ID() uint32 { return s.id }

// Parent returns the parent section, or an error wrapping ErrNoParent for roots
func (s *MitoSection) Parent() (*MitoSection, error) { return s.owner.parentOf(s.id) }

// IsRoot reports whether s has no parent
func (s *MitoSection) IsRoot() bool { return s.owner.isRoot(s.id) }

// Children returns the direct children of s
func (s *MitoSection) Children() []*MitoSection { return s.owner.childrenOf(s.id) }

// AppendSection adds a child mitochondrial section
func (s *MitoSection) AppendSection(pl MitoPointLevel) (*MitoSection, error) {
	return s.owner.AppendSection(s, pl)
}

// AppendCopy appends a copy of src under s
func (s *MitoSection) AppendCopy(src *MitoSection, recursive bool) (*MitoSection, error) {
	return s.owner.appendCopy(s, src, recursive)
}

// HasSameShape compares the entry arrays of two sections
func (s *MitoSection) HasSameShape(other *MitoSection) bool {
	return s.MitoPointLevel.Equal(other.MitoPointLevel)
}

// Depth walks the subtree rooted at s pre-order
func (s *MitoSection) Depth() *traverse.Iterator[*MitoSection] {
	return s.owner.tree().Depth(s)
}

// Breadth walks the subtree rooted at s level by level
func (s *MitoSection) Breadth() *traverse.Iterator[*MitoSection] {
	return s.owner.tree().Breadth(s)
}

// Upstream walks from s to its root
func (s *MitoSection) Upstream() *traverse.Iterator[*MitoSection] {
	return s.owner.tree().Upstream(s)
}

// Mitochondria is the forest of mitochondrial sections of one cell
type Mitochondria struct {
	forest[*MitoSection]
}

// NewMitochondria creates an empty container
func NewMitochondria() *Mitochondria {
	return &Mitochondria{forest: newForest[*MitoSection]()}
}

// Empty reports whether there are no sections
func (mt *Mitochondria) Empty() bool { return mt.size() == 0 }

// Len returns the number of sections
func (mt *Mitochondria) Len() int { return mt.size() }

// Section returns the section with the given id
func (mt *Mitochondria) Section(id uint32) (*MitoSection, error) { return mt.lookup(id) }

// Sections returns all sections ordered by id
func (mt *Mitochondria) Sections() []*MitoSection { return mt.sorted() }

// RootSections returns one section per mitochondrion
func (mt *Mitochondria) RootSections() []*MitoSection { return mt.rootList() }

// Children returns the children of id, empty for unknown ids
func (mt *Mitochondria) Children(id uint32) []*MitoSection { return mt.childrenOf(id) }

// Parent returns the parent of id, or an error wrapping ErrNoParent for roots
func (mt *Mitochondria) Parent(id uint32) (*MitoSection, error) { return mt.parentOf(id) }

// IsRoot reports whether id has no live parent
func (mt *Mitochondria) IsRoot(id uint32) bool { return mt.isRoot(id) }

// Depth walks every mitochondrion pre-order
func (mt *Mitochondria) Depth() *traverse.Iterator[*MitoSection] {
	return mt.tree().Depth(mt.roots...)
}

// Breadth walks each mitochondrion level by level
func (mt *Mitochondria) Breadth() *traverse.Iterator[*MitoSection] {
	return mt.tree().Breadth(mt.roots...)
}

// AppendRootSection starts a new mitochondrion
func (mt *Mitochondria) AppendRootSection(pl MitoPointLevel) (*MitoSection, error) {
	if err := pl.Validate(); err != nil {
		return nil, err
	}
	s := &MitoSection{MitoPointLevel: pl, id: mt.peekID(), owner: mt}
	mt.addRoot(s)
	return s, nil
}

// AppendSection adds a child under parent
func (mt *Mitochondria) AppendSection(parent *MitoSection, pl MitoPointLevel) (*MitoSection, error) {
	if parent == nil || parent.owner != mt || !mt.owns(parent) {
		return nil, fmt.Errorf("mitochondrial parent: %w", ErrUnknownID)
	}
	if err := pl.Validate(); err != nil {
		return nil, err
	}
	s := &MitoSection{MitoPointLevel: pl, id: mt.peekID(), owner: mt}
	mt.addChild(parent.id, s)
	return s, nil
}

// AppendRootCopy copies src (and its subtree when recursive) as a new root
func (mt *Mitochondria) AppendRootCopy(src *MitoSection, recursive bool) (*MitoSection, error) {
	return mt.appendCopy(nil, src, recursive)
}

// appendCopy mirrors Morphology.appendCopy for mitochondrial sections
func (mt *Mitochondria) appendCopy(parent, src *MitoSection, recursive bool) (*MitoSection, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source section", ErrStructure)
	}
	nodes := []*MitoSection{src}
	parents := []int{-1}
	if recursive {
		index := map[uint32]int{src.id: 0}
		walk := src.Depth()
		_ = walk.Next()
		for s := range walk.All() {
			p, err := s.Parent()
			if err != nil {
				return nil, err
			}
			index[s.id] = len(nodes)
			nodes = append(nodes, s)
			parents = append(parents, index[p.id])
		}
	}
	created := make([]*MitoSection, len(nodes))
	for i, n := range nodes {
		var (
			s   *MitoSection
			err error
		)
		switch {
		case parents[i] >= 0:
			s, err = mt.AppendSection(created[parents[i]], n.MitoPointLevel.Clone())
		case parent != nil:
			s, err = mt.AppendSection(parent, n.MitoPointLevel.Clone())
		default:
			s, err = mt.AppendRootSection(n.MitoPointLevel.Clone())
		}
		if err != nil {
			if i > 0 {
				mt.DeleteSection(created[0], true)
			}
			return nil, fmt.Errorf("copying mitochondrial section %d: %w", n.id, err)
		}
		created[i] = s
	}
	return created[0], nil
}

// DeleteSection removes s, splicing children to its parent unless recursive
func (mt *Mitochondria) DeleteSection(s *MitoSection, recursive bool) {
	if s == nil || s.owner != mt || !mt.owns(s) {
		return
	}
	mt.remove(s.id, recursive)
}
