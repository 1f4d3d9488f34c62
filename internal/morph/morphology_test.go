package morph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morphkit/arbor/internal/warning"
)

func newTestMorph(t *testing.T) (*Morphology, *warning.Collector) {
	t.Helper()
	c := warning.NewCollector()
	return New(WithHandler(c)), c
}

func pl(points []Point, diameters ...float64) PointLevel {
	return PointLevel{Points: points, Diameters: diameters}
}

func ids(sections []*Section) []uint32 {
	out := make([]uint32, len(sections))
	for i, s := range sections {
		out[i] = s.ID()
	}
	return out
}

// chain builds root -> A -> B -> C with duplicate-point continuity
func chain(t *testing.T, m *Morphology) []*Section {
	t.Helper()
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)
	out := []*Section{root}
	prev := root
	for i := 2; i <= 4; i++ {
		x := float64(i)
		s, err := prev.AppendSection(pl([]Point{{x - 1, 0, 0}, {x, 0, 0}}, 1, 1), SectionUndefined)
		require.NoError(t, err)
		out = append(out, s)
		prev = s
	}
	return out
}

func TestAppend_DuplicateWarning(t *testing.T) {
	m, c := newTestMorph(t)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)

	child, err := root.AppendSection(pl([]Point{{2, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)

	assert.Equal(t, []warning.Kind{warning.WrongDuplicate}, c.Kinds())
	assert.Contains(t, c.All()[0].Message, "parent last point")
	assert.Equal(t, []uint32{child.ID()}, ids(m.Children(root.ID())))
}

func TestAppend_DuplicateDiameterMismatch(t *testing.T) {
	m, c := newTestMorph(t)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)
	_, err = root.AppendSection(pl([]Point{{1, 0, 0}, {2, 0, 0}}, 3, 1), SectionAxon)
	require.NoError(t, err)
	assert.Equal(t, 1, c.CountOf(warning.WrongDuplicate))
}

func TestAppend_DuplicateIgnored(t *testing.T) {
	m, c := newTestMorph(t)
	c.SetIgnoredWarning(warning.WrongDuplicate, true)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)
	_, err = root.AppendSection(pl([]Point{{5, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	assert.Empty(t, c.All())
}

func TestAppend_EmptySection(t *testing.T) {
	m, c := newTestMorph(t)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	_, err = root.AppendSection(PointLevel{}, SectionAxon)
	require.NoError(t, err)
	// the duplicate check is skipped for empty children
	assert.Equal(t, []warning.Kind{warning.AppendingEmptySection}, c.Kinds())
	assert.Equal(t, 2, m.Len())
}

func TestAppend_EmptyParentMatches(t *testing.T) {
	m, c := newTestMorph(t)
	root, err := m.AppendRootSection(PointLevel{}, SectionAxon)
	require.NoError(t, err)
	_, err = root.AppendSection(pl([]Point{{4, 4, 4}}, 2), SectionAxon)
	require.NoError(t, err)
	assert.Equal(t, []warning.Kind{warning.AppendingEmptySection}, c.Kinds())
}

func TestAppend_SomaTypeRejected(t *testing.T) {
	m, _ := newTestMorph(t)
	_, err := m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionSoma)
	assert.ErrorIs(t, err, ErrSomaType)
	assert.ErrorIs(t, err, ErrStructure)

	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	_, err = root.AppendSection(pl([]Point{{0, 0, 0}}, 1), SectionSoma)
	assert.ErrorIs(t, err, ErrSomaType)
	assert.Equal(t, 1, m.Len())
}

func TestAppend_InheritsParentType(t *testing.T) {
	m, _ := newTestMorph(t)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionApicalDendrite)
	require.NoError(t, err)
	child, err := root.AppendSection(pl([]Point{{0, 0, 0}}, 1), SectionUndefined)
	require.NoError(t, err)
	assert.Equal(t, SectionApicalDendrite, child.Type())
}

func TestAppend_ShapeError(t *testing.T) {
	m, _ := newTestMorph(t)
	_, err := m.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 1, 1}}, 1), SectionAxon)
	assert.ErrorIs(t, err, ErrDataShape)

	_, err = NewPointLevel([]Point{{0, 0, 0}}, []float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDataShape)
	assert.True(t, m.Empty())
}

func TestAppend_RaisedWarningLeavesTreeUnchanged(t *testing.T) {
	m, c := newTestMorph(t)
	c.SetRaiseWarnings(true)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)

	_, err = root.AppendSection(pl([]Point{{9, 9, 9}}, 1), SectionAxon)
	require.Error(t, err)
	assert.True(t, errors.Is(err, warning.ErrRaised))
	assert.Empty(t, root.Children())
	assert.Equal(t, 1, m.Len())

	next, err := root.AppendSection(pl([]Point{{1, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), next.ID())
}

func TestAppend_ForeignParent(t *testing.T) {
	a, _ := newTestMorph(t)
	b, _ := newTestMorph(t)
	root, err := a.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	_, err = b.AppendSection(root, pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	assert.ErrorIs(t, err, ErrForeignRef)

	a.DeleteSection(root, false)
	_, err = root.AppendSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestParent_RootHasNone(t *testing.T) {
	m, _ := newTestMorph(t)
	s := chain(t, m)
	_, err := s[0].Parent()
	assert.ErrorIs(t, err, ErrNoParent)
	assert.ErrorIs(t, err, ErrStructure)

	p, err := m.Parent(s[2].ID())
	require.NoError(t, err)
	assert.Same(t, s[1], p)
	assert.True(t, m.IsRoot(s[0].ID()))
	assert.False(t, m.IsRoot(s[1].ID()))

	_, err = m.Section(99)
	assert.ErrorIs(t, err, ErrUnknownID)
	assert.Empty(t, m.Children(99))
}

func TestDelete_SpliceOut(t *testing.T) {
	m, _ := newTestMorph(t)
	s := chain(t, m)
	root, a, b, c := s[0], s[1], s[2], s[3]

	m.DeleteSection(a, false)

	assert.Equal(t, []uint32{b.ID()}, ids(root.Children()))
	p, err := b.Parent()
	require.NoError(t, err)
	assert.Same(t, root, p)
	assert.Equal(t, []uint32{c.ID()}, ids(b.Children()))
	assert.Equal(t, 3, m.Len())
}

func TestDelete_Recursive(t *testing.T) {
	m, _ := newTestMorph(t)
	s := chain(t, m)
	m.DeleteSection(s[1], true)
	assert.Empty(t, s[0].Children())
	assert.Equal(t, 1, m.Len())
	for _, gone := range s[1:] {
		_, err := m.Section(gone.ID())
		assert.ErrorIs(t, err, ErrUnknownID)
	}
}

func TestDelete_RootPromotesChildren(t *testing.T) {
	m, _ := newTestMorph(t)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	c1, err := root.AppendSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	c2, err := root.AppendSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)

	m.DeleteSection(root, false)
	assert.Equal(t, []uint32{c1.ID(), c2.ID()}, ids(m.RootSections()))
	assert.True(t, c1.IsRoot())
	_, err = c1.Parent()
	assert.ErrorIs(t, err, ErrNoParent)
}

func TestDelete_NonMemberIsNoop(t *testing.T) {
	a, _ := newTestMorph(t)
	b, _ := newTestMorph(t)
	s := chain(t, a)
	other, err := b.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)

	a.DeleteSection(other, true)
	a.DeleteSection(nil, false)
	assert.Equal(t, 4, a.Len())

	a.DeleteSection(s[3], false)
	a.DeleteSection(s[3], false)
	assert.Equal(t, 3, a.Len())
}

func TestDelete_HandleOutlivesMembership(t *testing.T) {
	m, _ := newTestMorph(t)
	s := chain(t, m)
	b := s[2]
	m.DeleteSection(b, false)

	assert.Equal(t, []Point{{2, 0, 0}, {3, 0, 0}}, b.Points)
	b.Points[0] = Point{7, 7, 7}
	assert.True(t, b.IsRoot())
	assert.Empty(t, b.Children())
}

func TestIDs_NeverReused(t *testing.T) {
	m, _ := newTestMorph(t)
	s := chain(t, m)
	m.DeleteSection(s[3], false)
	next, err := s[2].AppendSection(pl([]Point{{3, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), next.ID())

	seen := map[uint32]bool{}
	for _, sec := range m.Sections() {
		assert.False(t, seen[sec.ID()])
		seen[sec.ID()] = true
	}
}

func TestAcyclic_ParentChainsReachRoot(t *testing.T) {
	m, _ := newTestMorph(t)
	s := chain(t, m)
	_, err := s[1].AppendSection(pl([]Point{{2, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	m.DeleteSection(s[2], false)

	for _, sec := range m.Sections() {
		steps := 0
		cur := sec
		for !cur.IsRoot() {
			p, err := cur.Parent()
			require.NoError(t, err)
			cur = p
			steps++
			require.LessOrEqual(t, steps, m.Len())
		}
	}
}

func TestTraversal_BreadthFromTree(t *testing.T) {
	m, _ := newTestMorph(t)
	r, err := m.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 0, 0}}, 1, 1), SectionBasalDendrite)
	require.NoError(t, err)
	c1, err := r.AppendSection(pl([]Point{{1, 0, 0}, {2, 0, 0}}, 1, 1), SectionUndefined)
	require.NoError(t, err)
	c2, err := r.AppendSection(pl([]Point{{1, 0, 0}, {1, 2, 0}}, 1, 1), SectionUndefined)
	require.NoError(t, err)

	got := m.Breadth().Collect()
	assert.Equal(t, []*Section{r, c1, c2}, got)
}

func TestTraversal_DepthAcrossRoots(t *testing.T) {
	m, _ := newTestMorph(t)
	a, err := m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	a1, err := a.AppendSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	b, err := m.AppendRootSection(pl([]Point{{5, 0, 0}}, 1), SectionBasalDendrite)
	require.NoError(t, err)
	a2, err := a.AppendSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	a11, err := a1.AppendSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)

	assert.Equal(t, []*Section{a, a1, a11, a2, b}, m.Depth().Collect())
	assert.Equal(t, []*Section{a, a1, a2, a11, b}, m.Breadth().Collect())
	assert.Equal(t, []*Section{a1, a11}, a1.Depth().Collect())
}

func TestTraversal_Upstream(t *testing.T) {
	m, _ := newTestMorph(t)
	s := chain(t, m)
	root, a, b := s[0], s[1], s[2]
	m.DeleteSection(s[3], false)

	it := b.Upstream()
	assert.Equal(t, []*Section{b, a, root}, it.Collect())
	assert.Error(t, it.Next())
}

func TestTraversal_EmptyMorphology(t *testing.T) {
	m, _ := newTestMorph(t)
	assert.Empty(t, m.RootSections())
	assert.Empty(t, m.Sections())
	assert.True(t, m.Depth().Done())
	assert.True(t, m.Breadth().Done())
	assert.Empty(t, m.Depth().Collect())
}

func TestAppendCopy_Recursive(t *testing.T) {
	src, _ := newTestMorph(t)
	s := chain(t, src)
	dst, c := newTestMorph(t)

	root, err := dst.AppendRootCopy(s[1], true)
	require.NoError(t, err)
	assert.Equal(t, 3, dst.Len())
	assert.Empty(t, c.All())
	assert.True(t, root.HasSameShape(s[1]))

	// copies are by value
	root.Points[0] = Point{42, 0, 0}
	assert.Equal(t, Point{1, 0, 0}, s[1].Points[0])

	shallow, err := root.AppendCopy(s[3], false)
	require.NoError(t, err)
	assert.Empty(t, shallow.Children())
}

func TestAppendCopy_FailureRemovesPartialCopy(t *testing.T) {
	src, _ := newTestMorph(t)
	root, err := src.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)
	_, err = root.AppendSection(pl([]Point{{5, 5, 5}, {6, 5, 5}}, 1, 1), SectionAxon)
	require.NoError(t, err)

	dst, c := newTestMorph(t)
	c.SetRaiseWarnings(true)
	_, err = dst.AppendRootCopy(root, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, warning.ErrRaised)
	assert.True(t, dst.Empty())
	assert.Empty(t, dst.RootSections())

	c.SetRaiseWarnings(false)
	copied, err := dst.AppendRootCopy(root, true)
	require.NoError(t, err)
	assert.Len(t, copied.Children(), 1)
	assert.Equal(t, 2, dst.Len())
}

func TestAppendCopy_IntoOwnSubtree(t *testing.T) {
	m, _ := newTestMorph(t)
	s := chain(t, m)
	_, err := s[3].AppendCopy(s[1], true)
	require.NoError(t, err)
	assert.Equal(t, 7, m.Len())
}

func TestSection_IsHeterogeneous(t *testing.T) {
	m, _ := newTestMorph(t)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	child, err := root.AppendSection(pl([]Point{{0, 0, 0}}, 1), SectionBasalDendrite)
	require.NoError(t, err)
	assert.True(t, root.IsHeterogeneous(true))
	assert.False(t, child.IsHeterogeneous(true))
	assert.True(t, child.IsHeterogeneous(false))
}

func TestMitochondria_Forest(t *testing.T) {
	mt := NewMitochondria()
	root, err := mt.AppendRootSection(MitoPointLevel{
		NeuriteIDs:          []uint32{0, 0},
		RelativePathLengths: []float64{0.1, 0.2},
		Diameters:           []float64{1, 1},
	})
	require.NoError(t, err)
	child, err := root.AppendSection(MitoPointLevel{
		NeuriteIDs:          []uint32{1},
		RelativePathLengths: []float64{0.5},
		Diameters:           []float64{2},
	})
	require.NoError(t, err)

	_, err = root.AppendSection(MitoPointLevel{NeuriteIDs: []uint32{1}})
	assert.ErrorIs(t, err, ErrDataShape)

	assert.Equal(t, []*MitoSection{child, root}, child.Upstream().Collect())
	_, err = root.Parent()
	assert.ErrorIs(t, err, ErrNoParent)

	mt.DeleteSection(root, false)
	assert.Equal(t, []*MitoSection{child}, mt.RootSections())
}

func TestMitochondria_FailedCopyRollsBack(t *testing.T) {
	mt := NewMitochondria()
	root, err := mt.AppendRootSection(MitoPointLevel{
		NeuriteIDs:          []uint32{0},
		RelativePathLengths: []float64{0.1},
		Diameters:           []float64{1},
	})
	require.NoError(t, err)
	child, err := root.AppendSection(MitoPointLevel{
		NeuriteIDs:          []uint32{1},
		RelativePathLengths: []float64{0.5},
		Diameters:           []float64{2},
	})
	require.NoError(t, err)
	child.Diameters = nil

	_, err = mt.AppendRootCopy(root, true)
	assert.ErrorIs(t, err, ErrDataShape)
	assert.Equal(t, 2, mt.Len())
	assert.Equal(t, []*MitoSection{root}, mt.RootSections())
}
