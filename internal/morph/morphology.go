// Package morph holds the mutable morphology model: a forest of sections with
// parent/child bookkeeping, the soma, mitochondria and endoplasmic reticulum,
// plus the edits, modifiers and snapshot building that operate on them.
package morph

import (
	"fmt"

	"morphkit/arbor/internal/traverse"
	"morphkit/arbor/internal/warning"
)

// Version records the on-disk format a morphology was read from or targets
type Version struct {
	Format string `json:"format"`
	Major  uint32 `json:"major"`
	Minor  uint32 `json:"minor"`
}

// Morphology is an editable neuron, glial cell or dendritic spine.
// It is not safe for concurrent mutation.
type Morphology struct {
	forest[*Section]

	soma        *Soma
	mito        *Mitochondria
	er          *EndoplasmicReticulum
	markers     []Marker
	annotations []Annotation

	family  CellFamily
	version Version
	source  string
	handler warning.Handler
}

// Option configures a Morphology at construction
type Option func(*Morphology)

// WithHandler routes warnings to h instead of a default logrus printer
func WithHandler(h warning.Handler) Option {
	return func(m *Morphology) { m.handler = h }
}

// WithFamily sets the cell family
func WithFamily(f CellFamily) Option {
	return func(m *Morphology) { m.family = f }
}

// WithSource records where the morphology came from, for messages
func WithSource(uri string) Option {
	return func(m *Morphology) { m.source = uri }
}

// New creates an empty neuron morphology
func New(opts ...Option) *Morphology {
	m := &Morphology{
		forest:  newForest[*Section](),
		soma:    &Soma{},
		mito:    NewMitochondria(),
		er:      &EndoplasmicReticulum{},
		family:  FamilyNeuron,
		version: Version{Format: "h5", Major: 1, Minor: 3},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.handler == nil {
		m.handler = warning.NewPrinter(nil)
	}
	return m
}

// NewGlialCell creates an empty glial cell
func NewGlialCell(opts ...Option) *Morphology {
	return New(append([]Option{WithFamily(FamilyGlia)}, opts...)...)
}

// NewDendriticSpine creates an empty dendritic spine
func NewDendriticSpine(opts ...Option) *Morphology {
	return New(append([]Option{WithFamily(FamilySpine)}, opts...)...)
}

// Family returns the cell family
func (m *Morphology) Family() CellFamily { return m.family }

// Version returns the format version the morphology was read from
func (m *Morphology) Version() Version { return m.version }

// SetVersion overrides the recorded format version
func (m *Morphology) SetVersion(v Version) { m.version = v }

// Source returns the uri given by WithSource
func (m *Morphology) Source() string { return m.source }

// Handler returns the warning handler edits report to
func (m *Morphology) Handler() warning.Handler { return m.handler }

// Soma returns the mutable soma
func (m *Morphology) Soma() *Soma { return m.soma }

// Mitochondria returns the mitochondrial forest
func (m *Morphology) Mitochondria() *Mitochondria { return m.mito }

// EndoplasmicReticulum returns the mutable ER arrays
func (m *Morphology) EndoplasmicReticulum() *EndoplasmicReticulum { return m.er }

// Empty reports whether there are no sections
func (m *Morphology) Empty() bool { return m.size() == 0 }

// Len returns the number of sections
func (m *Morphology) Len() int { return m.size() }

// Section returns the section with the given id
func (m *Morphology) Section(id uint32) (*Section, error) {
	return m.lookup(id)
}

// Sections returns all sections ordered by id
func (m *Morphology) Sections() []*Section { return m.sorted() }

// RootSections returns the root sections in their current order
func (m *Morphology) RootSections() []*Section { return m.rootList() }

// Children returns the children of id, empty for unknown ids
func (m *Morphology) Children(id uint32) []*Section { return m.childrenOf(id) }

// Parent returns the parent of id, or an error wrapping ErrNoParent for roots
func (m *Morphology) Parent(id uint32) (*Section, error) { return m.parentOf(id) }

// IsRoot reports whether id has no live parent
func (m *Morphology) IsRoot(id uint32) bool { return m.isRoot(id) }

// Depth walks every root's subtree pre-order, roots in order
func (m *Morphology) Depth() *traverse.Iterator[*Section] {
	return m.tree().Depth(m.roots...)
}

// Breadth walks each root's subtree level by level, one root after another
func (m *Morphology) Breadth() *traverse.Iterator[*Section] {
	return m.tree().Breadth(m.roots...)
}

// AppendRootSection adds a new root section
func (m *Morphology) AppendRootSection(pl PointLevel, t SectionType) (*Section, error) {
	if t == SectionSoma {
		return nil, ErrSomaType
	}
	if err := pl.Validate(); err != nil {
		return nil, fmt.Errorf("appending root section: %w", err)
	}
	s := &Section{PointLevel: pl, id: m.peekID(), typ: t, morph: m}
	if err := m.checkAppend(nil, s); err != nil {
		return nil, err
	}
	m.addRoot(s)
	return s, nil
}

// AppendSection adds a child of parent. SectionUndefined inherits the parent's type.
func (m *Morphology) AppendSection(parent *Section, pl PointLevel, t SectionType) (*Section, error) {
	if err := m.checkMember(parent); err != nil {
		return nil, err
	}
	if t == SectionUndefined {
		t = parent.typ
	}
	if t == SectionSoma {
		return nil, ErrSomaType
	}
	if err := pl.Validate(); err != nil {
		return nil, fmt.Errorf("appending section to %d: %w", parent.id, err)
	}
	s := &Section{PointLevel: pl, id: m.peekID(), typ: t, morph: m}
	if err := m.checkAppend(parent, s); err != nil {
		return nil, err
	}
	m.addChild(parent.id, s)
	return s, nil
}

// AppendRootCopy copies src (and its subtree when recursive) as a new root
func (m *Morphology) AppendRootCopy(src *Section, recursive bool) (*Section, error) {
	return m.appendCopy(nil, src, recursive)
}

// appendCopy copies src's data by value under parent (nil for a new root).
// The source subtree is captured before anything is appended so copying a
// section into its own subtree terminates. On error the partial copy is removed.
func (m *Morphology) appendCopy(parent, src *Section, recursive bool) (*Section, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source section", ErrStructure)
	}
	type job struct {
		src       *Section
		parentIdx int
	}
	jobs := []job{{src: src, parentIdx: -1}}
	if recursive {
		index := map[uint32]int{src.id: 0}
		walk := src.Depth()
		_ = walk.Next()
		for s := range walk.All() {
			p, err := s.Parent()
			if err != nil {
				return nil, err
			}
			index[s.id] = len(jobs)
			jobs = append(jobs, job{src: s, parentIdx: index[p.id]})
		}
	}

	created := make([]*Section, len(jobs))
	for i, j := range jobs {
		var (
			s   *Section
			err error
		)
		switch {
		case j.parentIdx >= 0:
			s, err = m.AppendSection(created[j.parentIdx], j.src.PointLevel.Clone(), j.src.typ)
		case parent != nil:
			s, err = m.AppendSection(parent, j.src.PointLevel.Clone(), j.src.typ)
		default:
			s, err = m.AppendRootSection(j.src.PointLevel.Clone(), j.src.typ)
		}
		if err != nil {
			if i > 0 {
				m.DeleteSection(created[0], true)
			}
			return nil, fmt.Errorf("copying section %d: %w", j.src.id, err)
		}
		created[i] = s
	}
	return created[0], nil
}

// DeleteSection removes s. A non-recursive delete re-parents s's children to
// s's former parent; a recursive delete removes the whole subtree.
// Sections that do not belong to m are ignored.
func (m *Morphology) DeleteSection(s *Section, recursive bool) {
	if s == nil || s.morph != m || !m.owns(s) {
		return
	}
	m.remove(s.id, recursive)
}

func (m *Morphology) checkMember(s *Section) error {
	if s == nil {
		return fmt.Errorf("%w: nil parent section", ErrStructure)
	}
	if s.morph != m {
		return fmt.Errorf("section %d: %w", s.id, ErrForeignRef)
	}
	if !m.owns(s) {
		return fmt.Errorf("section %d: %w", s.id, ErrUnknownID)
	}
	return nil
}

// Markers returns the markers attached to the morphology
func (m *Morphology) Markers() []Marker { return m.markers }

// AddMarker attaches a marker
func (m *Morphology) AddMarker(mk Marker) { m.markers = append(m.markers, mk) }

// Annotations returns the annotations produced by consistency passes
func (m *Morphology) Annotations() []Annotation { return m.annotations }

// AddAnnotation records an annotation
func (m *Morphology) AddAnnotation(a Annotation) { m.annotations = append(m.annotations, a) }

// Describe returns a one-line summary used in logs
func (m *Morphology) Describe() string {
	return fmt.Sprintf("%s with %d sections, %d roots, soma %s (%d points), %d mitochondrial sections",
		m.family, m.size(), len(m.roots), m.soma.Type, m.soma.Len(), m.mito.size())
}
