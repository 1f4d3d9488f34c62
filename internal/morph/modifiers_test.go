package morph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morphkit/arbor/internal/warning"
)

// branchy builds a soma plus two neurites:
//
//	0 axon (3 points) -> 1 (3 points), 2 (2 points)
//	3 dendrite (1 point)
func branchy(t *testing.T) (*Morphology, *warning.Collector) {
	t.Helper()
	m, c := newTestMorph(t)
	m.Soma().PointLevel = pl([]Point{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}}, 0.5, 0.5, 0.5, 0.5)
	m.Soma().Type = SomaSimpleContour

	axon, err := m.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}, 1, 1, 1), SectionAxon)
	require.NoError(t, err)
	_, err = axon.AppendSection(pl([]Point{{2, 0, 0}, {3, 0, 0}, {4, 0, 0}}, 1, 0.9, 0.8), SectionUndefined)
	require.NoError(t, err)
	_, err = axon.AppendSection(pl([]Point{{2, 0, 0}, {2, 1, 0}}, 1, 0.5), SectionUndefined)
	require.NoError(t, err)
	_, err = m.AppendRootSection(pl([]Point{{0, 0, 5}}, 2), SectionBasalDendrite)
	require.NoError(t, err)
	return m, c
}

func snapshot(t *testing.T, m *Morphology) *Properties {
	t.Helper()
	p, err := m.BuildReadOnly()
	require.NoError(t, err)
	return p
}

func TestTwoPointSections(t *testing.T) {
	m, _ := branchy(t)
	TwoPointSections(m)
	s, err := m.Section(1)
	require.NoError(t, err)
	assert.Equal(t, []Point{{2, 0, 0}, {4, 0, 0}}, s.Points)
	assert.Equal(t, []float64{1, 0.8}, s.Diameters)

	single, err := m.Section(3)
	require.NoError(t, err)
	assert.Len(t, single.Points, 1)
}

func TestTwoPointSections_Idempotent(t *testing.T) {
	once, _ := branchy(t)
	TwoPointSections(once)
	twice, _ := branchy(t)
	TwoPointSections(twice)
	TwoPointSections(twice)
	assert.True(t, snapshot(t, once).Equal(snapshot(t, twice)))
}

func TestNoDuplicatePoints_SkipsRoots(t *testing.T) {
	m, _ := branchy(t)
	NoDuplicatePoints(m)
	root, _ := m.Section(0)
	child, _ := m.Section(1)
	assert.Len(t, root.Points, 3)
	assert.Equal(t, []Point{{3, 0, 0}, {4, 0, 0}}, child.Points)
	assert.Equal(t, []float64{0.9, 0.8}, child.Diameters)
}

func TestSphereSoma(t *testing.T) {
	m, _ := branchy(t)
	SphereSoma(m)
	soma := m.Soma()
	require.Len(t, soma.Points, 1)
	assert.Equal(t, Point{0, 0, 0}, soma.Points[0])
	assert.InDelta(t, 2.0, soma.Diameters[0], 1e-12)
	assert.Equal(t, SomaSinglePoint, soma.Type)
}

func TestSphereSoma_SinglePointUntouched(t *testing.T) {
	m, _ := newTestMorph(t)
	m.Soma().PointLevel = pl([]Point{{1, 2, 3}}, 4)
	SphereSoma(m)
	assert.Equal(t, []float64{4}, m.Soma().Diameters)
}

func TestNrnOrdering_StableByType(t *testing.T) {
	m, _ := newTestMorph(t)
	types := []SectionType{SectionApicalDendrite, SectionAxon, SectionBasalDendrite, SectionAxon}
	var roots []*Section
	for _, st := range types {
		r, err := m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), st)
		require.NoError(t, err)
		roots = append(roots, r)
	}
	NrnOrdering(m)
	assert.Equal(t, []*Section{roots[1], roots[3], roots[2], roots[0]}, m.RootSections())
	assert.Empty(t, roots[1].Children())
}

func TestApplyModifiers_Combined(t *testing.T) {
	m, _ := branchy(t)
	mods, err := ParseModifiers([]string{"two-points-sections", "nrn_order"})
	require.NoError(t, err)
	assert.Equal(t, TwoPointsSections|NrnOrder, mods)
	m.ApplyModifiers(mods)
	for _, s := range m.Sections() {
		assert.LessOrEqual(t, s.Len(), 2)
	}

	_, err = ParseModifiers([]string{"bogus"})
	assert.Error(t, err)
	assert.Equal(t, "two_points_sections|nrn_order", mods.String())
}

func TestRemoveUnifurcations(t *testing.T) {
	m, c := newTestMorph(t)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}, {1, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)
	only, err := root.AppendSection(pl([]Point{{1, 0, 0}, {2, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)
	l, err := only.AppendSection(pl([]Point{{2, 0, 0}, {3, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)
	r, err := only.AppendSection(pl([]Point{{2, 0, 0}, {2, 1, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)

	require.NoError(t, m.RemoveUnifurcations())

	assert.Equal(t, []Point{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}, root.Points)
	assert.Equal(t, []*Section{l, r}, root.Children())
	assert.Equal(t, 1, c.CountOf(warning.OnlyChild))
	require.Len(t, m.Annotations(), 1)
	assert.Equal(t, AnnotationSingleChild, m.Annotations()[0].Kind)
	assert.Equal(t, root.ID(), m.Annotations()[0].SectionID)
	assert.Empty(t, m.Unifurcations())
}

func TestRemoveUnifurcations_Chain(t *testing.T) {
	m, _ := newTestMorph(t)
	s := chain(t, m)
	require.NoError(t, m.RemoveUnifurcations())
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []Point{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}}, s[0].Points)
}

func TestRemoveUnifurcations_NonDuplicateKeepsAllPoints(t *testing.T) {
	m, c := newTestMorph(t)
	root, err := m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	_, err = root.AppendSection(pl([]Point{{5, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	c.Reset()

	require.NoError(t, m.RemoveUnifurcations())
	assert.Equal(t, []Point{{0, 0, 0}, {5, 0, 0}}, root.Points)
	assert.Equal(t, []warning.Kind{warning.WrongDuplicate, warning.OnlyChild}, c.Kinds())
}

func TestRemoveUnifurcations_DropsOneSidedPerimeters(t *testing.T) {
	m, _ := newTestMorph(t)
	root, err := m.AppendRootSection(PointLevel{
		Points:     []Point{{0, 0, 0}, {1, 0, 0}},
		Diameters:  []float64{1, 1},
		Perimeters: []float64{3, 3},
	}, SectionAxon)
	require.NoError(t, err)
	_, err = root.AppendSection(pl([]Point{{1, 0, 0}, {2, 0, 0}}, 1, 1), SectionAxon)
	require.NoError(t, err)

	require.NoError(t, m.RemoveUnifurcations())
	assert.Len(t, root.Points, 3)
	assert.Empty(t, root.Perimeters)
	require.NoError(t, root.Validate())
	_, err = m.BuildReadOnly()
	require.NoError(t, err)
}

func TestRemoveUnifurcations_KeepsSharedPerimeters(t *testing.T) {
	m, _ := newTestMorph(t)
	root, err := m.AppendRootSection(PointLevel{
		Points:     []Point{{0, 0, 0}, {1, 0, 0}},
		Diameters:  []float64{1, 1},
		Perimeters: []float64{3, 3},
	}, SectionAxon)
	require.NoError(t, err)
	_, err = root.AppendSection(PointLevel{
		Points:     []Point{{1, 0, 0}, {2, 0, 0}},
		Diameters:  []float64{1, 1},
		Perimeters: []float64{3, 4},
	}, SectionAxon)
	require.NoError(t, err)

	require.NoError(t, m.RemoveUnifurcations())
	assert.Equal(t, []float64{3, 3, 4}, root.Perimeters)
}

func TestBuildReadOnly_Layout(t *testing.T) {
	m, _ := branchy(t)
	p := snapshot(t, m)

	assert.Equal(t, []SectionRecord{{0, -1}, {3, 0}, {6, 0}, {8, -1}}, p.Sections)
	assert.Equal(t, []SectionType{SectionAxon, SectionAxon, SectionAxon, SectionBasalDendrite}, p.Types)
	assert.Len(t, p.Points, 9)
	assert.Empty(t, p.Perimeters)
	assert.Equal(t, []int{1, 2}, p.Children(0))
	assert.Equal(t, []int{0, 3}, p.Roots())
	assert.Equal(t, SomaSimpleContour, p.SomaType)
	require.NoError(t, p.Validate())
}

func TestBuildReadOnly_PositionalAfterEdits(t *testing.T) {
	m, _ := branchy(t)
	s0, _ := m.Section(0)
	m.DeleteSection(s0, false)
	NrnOrdering(m)
	p := snapshot(t, m)
	// roots are now 1, 2 (axon) and 3 (dendrite)
	assert.Equal(t, []int{-1, -1, -1}, []int{p.Parent(0), p.Parent(1), p.Parent(2)})
	require.NoError(t, p.Validate())
}

func TestBuildReadOnly_MixedPerimeters(t *testing.T) {
	m, _ := newTestMorph(t)
	_, err := m.AppendRootSection(PointLevel{Points: []Point{{0, 0, 0}}, Diameters: []float64{1}, Perimeters: []float64{3}}, SectionAxon)
	require.NoError(t, err)
	_, err = m.AppendRootSection(pl([]Point{{0, 0, 0}}, 1), SectionAxon)
	require.NoError(t, err)
	_, err = m.BuildReadOnly()
	assert.ErrorIs(t, err, ErrDataShape)
}

func TestHydrate_RoundTrip(t *testing.T) {
	m, _ := branchy(t)
	mt := m.Mitochondria()
	mroot, err := mt.AppendRootSection(MitoPointLevel{NeuriteIDs: []uint32{0}, RelativePathLengths: []float64{0.5}, Diameters: []float64{0.1}})
	require.NoError(t, err)
	_, err = mroot.AppendSection(MitoPointLevel{NeuriteIDs: []uint32{1, 1}, RelativePathLengths: []float64{0.1, 0.9}, Diameters: []float64{0.1, 0.1}})
	require.NoError(t, err)
	m.EndoplasmicReticulum().SectionIndices = []uint32{1}
	m.EndoplasmicReticulum().Volumes = []float64{2}
	m.EndoplasmicReticulum().SurfaceAreas = []float64{3}
	m.EndoplasmicReticulum().FilamentCounts = []uint32{4}

	original := snapshot(t, m)

	c := warning.NewCollector()
	hydrated, err := FromProperties(original, NoModifier, WithHandler(c))
	require.NoError(t, err)
	assert.Empty(t, c.All())

	again := snapshot(t, hydrated)
	assert.True(t, original.Equal(again))
	assert.Equal(t, original.ER, again.ER)
	assert.Equal(t, 2, hydrated.Mitochondria().Len())

	s, err := hydrated.Section(2)
	require.NoError(t, err)
	p, err := s.Parent()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), p.ID())
}

func TestHydrate_InvalidSnapshot(t *testing.T) {
	p := &Properties{
		PointLevel: pl([]Point{{0, 0, 0}, {1, 0, 0}}, 1, 1),
		Sections:   []SectionRecord{{0, 1}, {1, 0}},
		Types:      []SectionType{SectionAxon, SectionAxon},
	}
	_, err := FromProperties(p, NoModifier)
	assert.ErrorIs(t, err, ErrStructure)

	p.Sections = []SectionRecord{{0, -1}, {1, 0}}
	p.Types = p.Types[:1]
	_, err = FromProperties(p, NoModifier)
	assert.ErrorIs(t, err, ErrDataShape)
}

func TestSoma_Surface(t *testing.T) {
	s := &Soma{PointLevel: pl([]Point{{0, 0, 0}}, 2), Type: SomaSinglePoint}
	area, err := s.Surface()
	require.NoError(t, err)
	assert.InDelta(t, 4*math.Pi, area, 1e-9)

	contour := &Soma{PointLevel: pl([]Point{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, 1, 1, 1, 1), Type: SomaSimpleContour}
	area, err = contour.Surface()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, area, 1e-12)

	_, err = (&Soma{}).Surface()
	assert.ErrorIs(t, err, ErrUnsupported)
}
