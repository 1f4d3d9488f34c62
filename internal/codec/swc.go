package codec

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"morphkit/arbor/internal/morph"
	"morphkit/arbor/internal/warning"
)

const epsilon = 1e-6

type swcSample struct {
	id       int
	typ      morph.SectionType
	point    morph.Point
	diameter float64
	parent   int
	line     int
}

// swcReader turns a flat sample list into sections. A section starts at a
// sample whose parent ends a section (a bifurcation or the soma) and runs
// until the next bifurcation or leaf.
type swcReader struct {
	path string
	h    warning.Handler

	samples   map[int]*swcSample
	order     []*swcSample
	children  map[int][]int
	lastSoma  int
	somaRoot  *swcSample
	wrongRoot []*swcSample

	m         *morph.Morphology
	sectionOf map[int]uint32
}

// ReadSWC parses an SWC stream into a snapshot. Data errors are returned as
// *ParseError wrapping ErrRawData or ErrSomaError; recoverable issues go to h.
func ReadSWC(r io.Reader, path string, h warning.Handler) (*morph.Properties, error) {
	if h == nil {
		h = warning.NewPrinter(nil)
	}
	rd := &swcReader{
		path:      path,
		h:         h,
		samples:   make(map[int]*swcSample),
		children:  make(map[int][]int),
		lastSoma:  -1,
		sectionOf: make(map[int]uint32),
	}
	if err := rd.parse(r); err != nil {
		return nil, err
	}
	if err := rd.checkSamples(); err != nil {
		return nil, err
	}
	if err := rd.checkSomata(); err != nil {
		return nil, err
	}
	return rd.build()
}

func (rd *swcReader) parse(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		s, err := parseSWCLine(text)
		if err != nil {
			return &ParseError{Path: rd.path, Line: line, Err: err}
		}
		s.line = line
		if prev, dup := rd.samples[s.id]; dup {
			return parseErr(rd.path, line, ErrRawData, "repeated id %d, first seen on line %d", s.id, prev.line)
		}
		rd.samples[s.id] = s
		rd.order = append(rd.order, s)
		rd.children[s.parent] = append(rd.children[s.parent], s.id)
		if s.typ == morph.SectionSoma {
			rd.lastSoma = s.id
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", rd.path, err)
	}
	return nil
}

func parseSWCLine(text string) (*swcSample, error) {
	f := strings.Fields(text)
	if len(f) < 7 {
		return nil, fmt.Errorf("%w: expected 7 columns, got %d", ErrRawData, len(f))
	}
	id, err := strconv.Atoi(f[0])
	if err != nil || id < 0 {
		return nil, fmt.Errorf("%w: invalid sample id %q", ErrRawData, f[0])
	}
	typ, err := strconv.Atoi(f[1])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid section type %q", ErrRawData, f[1])
	}
	if typ <= 0 || typ >= int(morph.SectionOutOfRangeStart) {
		return nil, fmt.Errorf("%w: unsupported section type %d", ErrRawData, typ)
	}
	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(f[2+i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q", ErrRawData, f[2+i])
		}
		vals[i] = v
	}
	parent, err := strconv.Atoi(f[6])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid parent id %q", ErrRawData, f[6])
	}
	if parent < -1 {
		parent = -1
	}
	return &swcSample{
		id:       id,
		typ:      morph.SectionType(typ),
		point:    morph.Point{vals[0], vals[1], vals[2]},
		diameter: 2 * vals[3],
		parent:   parent,
	}, nil
}

func (rd *swcReader) checkSamples() error {
	for _, s := range rd.order {
		if s.parent == s.id {
			return parseErr(rd.path, s.line, ErrRawData, "sample %d is its own parent", s.id)
		}
		if s.parent != -1 {
			if _, ok := rd.samples[s.parent]; !ok {
				return parseErr(rd.path, s.line, ErrRawData, "sample %d references missing parent %d", s.id, s.parent)
			}
		}
		if err := rd.checkBrokenSoma(s); err != nil {
			return err
		}
		if s.diameter < epsilon {
			msg := fmt.Sprintf("%s:%d: sample %d has zero diameter", rd.path, s.line, s.id)
			if err := rd.h.Emit(warning.ZeroDiameter, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rd *swcReader) checkBrokenSoma(s *swcSample) error {
	if s.typ != morph.SectionSoma || s.parent == -1 {
		return nil
	}
	somaChildren := 0
	for _, id := range rd.children[s.id] {
		if c := rd.samples[id]; c.typ == morph.SectionSoma {
			somaChildren++
		} else {
			rd.wrongRoot = append(rd.wrongRoot, c)
		}
	}
	if somaChildren > 1 {
		return parseErr(rd.path, s.line, ErrSomaError, "soma bifurcation at sample %d", s.id)
	}
	if parent := rd.samples[s.parent]; parent.typ != morph.SectionSoma {
		return parseErr(rd.path, s.line, ErrSomaError, "soma sample %d has neurite parent %d", s.id, parent.id)
	}
	return nil
}

func (rd *swcReader) checkSomata() error {
	var roots []*swcSample
	for _, id := range rd.children[-1] {
		if s := rd.samples[id]; s.typ == morph.SectionSoma {
			roots = append(roots, s)
		}
	}
	switch len(roots) {
	case 0:
		return rd.h.Emit(warning.NoSomaFound, fmt.Sprintf("%s: no soma found", rd.path))
	case 1:
		rd.somaRoot = roots[0]
	default:
		return parseErr(rd.path, roots[1].line, ErrSomaError, "multiple somata, roots at lines %s", lineList(roots))
	}
	for _, s := range rd.order {
		if s.parent == -1 && s.typ != morph.SectionSoma {
			msg := fmt.Sprintf("%s:%d: neurite not connected to the soma", rd.path, s.line)
			if err := rd.h.Emit(warning.DisconnectedNeurite, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rd *swcReader) isRootPoint(s *swcSample) bool {
	if s.typ == morph.SectionSoma {
		return false
	}
	return s.parent == -1 || rd.samples[s.parent].typ == morph.SectionSoma
}

func (rd *swcReader) isSectionEnd(s *swcSample) bool {
	n := len(rd.children[s.id])
	return s.id == rd.lastSoma || n == 0 || (n >= 2 && s.typ != morph.SectionSoma)
}

func (rd *swcReader) isSectionStart(s *swcSample) bool {
	return rd.isRootPoint(s) || (s.parent > -1 && rd.isSectionEnd(rd.samples[s.parent]))
}

// depthFirst orders samples from the file roots down, children in file order
func (rd *swcReader) depthFirst() []*swcSample {
	out := make([]*swcSample, 0, len(rd.order))
	var stack []int
	push := func(ids []int) {
		for i := len(ids) - 1; i >= 0; i-- {
			stack = append(stack, ids[i])
		}
	}
	push(rd.children[-1])
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, rd.samples[id])
		push(rd.children[id])
	}
	return out
}

func (rd *swcReader) build() (*morph.Properties, error) {
	defer suppress(rd.h, warning.AppendingEmptySection)()

	rd.m = morph.New(morph.WithHandler(rd.h), morph.WithSource(rd.path))
	soma := rd.m.Soma()
	for _, s := range rd.depthFirst() {
		if rd.isRootPoint(s) && rd.isSectionEnd(s) {
			continue
		}
		if s.typ == morph.SectionSoma {
			soma.Points = append(soma.Points, s.point)
			soma.Diameters = append(soma.Diameters, s.diameter)
			continue
		}
		if rd.isSectionStart(s) {
			if err := rd.startSection(s); err != nil {
				return nil, err
			}
		} else {
			rd.sectionOf[s.id] = rd.sectionOf[s.parent]
		}
		sec, err := rd.m.Section(rd.sectionOf[s.id])
		if err != nil {
			return nil, err
		}
		sec.Points = append(sec.Points, s.point)
		sec.Diameters = append(sec.Diameters, s.diameter)
	}

	if len(soma.Points) == 3 && len(rd.wrongRoot) > 0 {
		msg := fmt.Sprintf("%s: neurites attached to a non-root point of a three-point soma at lines %s",
			rd.path, lineList(rd.wrongRoot))
		if err := rd.h.Emit(warning.WrongRootPoint, msg); err != nil {
			return nil, err
		}
	}
	somaType, err := rd.somaType()
	if err != nil {
		return nil, err
	}
	soma.Type = somaType
	rd.m.SetVersion(morph.Version{Format: "swc", Major: 1, Minor: 0})

	props, err := rd.m.BuildReadOnly()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rd.path, err)
	}
	props.Family = morph.FamilyNeuron
	return props, nil
}

func (rd *swcReader) startSection(s *swcSample) error {
	var (
		pl  morph.PointLevel
		sec *morph.Section
		err error
	)
	if rd.isRootPoint(s) {
		sec, err = rd.m.AppendRootSection(pl, s.typ)
	} else {
		parent := rd.samples[s.parent]
		if s.point != parent.point {
			pl.Points = []morph.Point{parent.point}
			pl.Diameters = []float64{parent.diameter}
		}
		if rd.isRootPoint(parent) {
			sec, err = rd.m.AppendRootSection(pl, s.typ)
		} else {
			var ps *morph.Section
			if ps, err = rd.m.Section(rd.sectionOf[parent.id]); err == nil {
				sec, err = ps.AppendSection(pl, s.typ)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("%s:%d: %w", rd.path, s.line, err)
	}
	rd.sectionOf[s.id] = sec.ID()
	return nil
}

func (rd *swcReader) somaType() (morph.SomaType, error) {
	switch len(rd.m.Soma().Points) {
	case 0:
		return morph.SomaUndefined, nil
	case 1:
		return morph.SomaSinglePoint, nil
	case 3:
		var outer []*swcSample
		for _, id := range rd.children[rd.somaRoot.id] {
			if c := rd.samples[id]; c.typ == morph.SectionSoma {
				outer = append(outer, c)
			}
		}
		if len(outer) != 2 {
			return morph.SomaCylinders, nil
		}
		if !rd.h.IsIgnored(warning.SomaNonConform) {
			root := rd.somaRoot
			if !threePointConforms(root.point, root.diameter, outer[0].point, outer[0].diameter, outer[1].point, outer[1].diameter) {
				msg := fmt.Sprintf("%s:%d: three-point soma does not follow the NeuroMorpho convention", rd.path, root.line)
				if err := rd.h.Emit(warning.SomaNonConform, msg); err != nil {
					return morph.SomaUndefined, err
				}
			}
		}
		return morph.SomaThreePointCylinders, nil
	default:
		return morph.SomaCylinders, nil
	}
}

// threePointConforms checks the NeuroMorpho three-point soma layout: the two
// outer points sit one radius below and above the center along Y. Somata
// whose outer points differ from the center in x, z or diameter are not
// held to that layout.
func threePointConforms(c morph.Point, d float64, p1 morph.Point, d1 float64, p2 morph.Point, d2 float64) bool {
	near := func(a, b float64) bool { return math.Abs(a-b) < epsilon }
	suited := near(d1, d) && near(d2, d) &&
		near(p1[0], c[0]) && near(p2[0], c[0]) &&
		near(p1[2], c[2]) && near(p2[2], c[2])
	if !suited {
		return true
	}
	r := d / 2
	return p1[0] == c[0] && p2[0] == c[0] &&
		p1[1] == c[1]-r && p2[1] == c[1]+r &&
		p1[2] == c[2] && p2[2] == c[2] &&
		d1 == d && d2 == d
}

func lineList(samples []*swcSample) string {
	parts := make([]string, len(samples))
	for i, s := range samples {
		parts[i] = strconv.Itoa(s.line)
	}
	return strings.Join(parts, ", ")
}

// WriteSWC serialises m as SWC. Nothing is written for a morphology with
// neither soma nor sections.
func WriteSWC(w io.Writer, m *morph.Morphology) error {
	h := m.Handler()
	soma := m.Soma()
	if soma.Empty() {
		if m.Empty() {
			return h.Emit(warning.WriteEmptyMorphology, fmt.Sprintf("%s: skipping empty morphology", m.Source()))
		}
		if err := h.Emit(warning.WriteNoSoma, fmt.Sprintf("%s: writing morphology without soma", m.Source())); err != nil {
			return err
		}
	}
	if err := checkSWCSoma(m); err != nil {
		return err
	}
	if err := checkNoPerimeters(m); err != nil {
		return err
	}
	if ids := m.Unifurcations(); len(ids) > 0 {
		return writerErr("section %d has an only child, SWC cannot represent unifurcations", ids[0])
	}
	if !m.Mitochondria().Empty() {
		msg := fmt.Sprintf("%s: mitochondria are not written to SWC", m.Source())
		if err := h.Emit(warning.MitochondriaWriteNotSupported, msg); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# created by arbor")
	fmt.Fprintln(bw, "# index     type         X            Y            Z       radius       parent")

	id := 1
	line := func(t morph.SectionType, p morph.Point, d float64, parent int) {
		fmt.Fprintf(bw, "%d %d %s %s %s %s %d\n", id, int(t),
			formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2]), formatFloat(d/2), parent)
		id++
	}

	if soma.Type == morph.SomaThreePointCylinders {
		line(morph.SectionSoma, soma.Points[0], soma.Diameters[0], -1)
		line(morph.SectionSoma, soma.Points[1], soma.Diameters[1], 1)
		line(morph.SectionSoma, soma.Points[2], soma.Diameters[2], 1)
	} else {
		for i, p := range soma.Points {
			parent := -1
			if i > 0 {
				parent = id - 1
			}
			line(morph.SectionSoma, p, soma.Diameters[i], parent)
		}
	}

	onDisk := make(map[uint32]int, m.Len())
	for s := range m.Depth().All() {
		if s.Empty() {
			return writerErr("section %d is empty", s.ID())
		}
		parent, first := 1, 0
		if soma.Empty() {
			parent = -1
		}
		if p, err := s.Parent(); err == nil {
			parent = onDisk[p.ID()]
			if len(p.Diameters) > 0 && s.Diameters[0] == p.Diameters[len(p.Diameters)-1] {
				first = 1
			}
		}
		for i := first; i < s.Len(); i++ {
			line(s.Type(), s.Points[i], s.Diameters[i], parent)
			parent = id - 1
		}
		onDisk[s.ID()] = id - 1
	}
	return bw.Flush()
}

func checkSWCSoma(m *morph.Morphology) error {
	soma := m.Soma()
	if err := soma.Validate(); err != nil {
		return writerErr("soma: %v", err)
	}
	if soma.Empty() {
		return nil
	}
	switch soma.Type {
	case morph.SomaUndefined:
		return m.Handler().Emit(warning.WriteUndefinedSoma, fmt.Sprintf("%s: soma type is undefined", m.Source()))
	case morph.SomaSinglePoint:
		if soma.Len() != 1 {
			return writerErr("single point soma has %d points", soma.Len())
		}
	case morph.SomaThreePointCylinders:
		if soma.Len() != 3 {
			return writerErr("three-point soma has %d points", soma.Len())
		}
		if !m.Handler().IsIgnored(warning.SomaNonConform) {
			p, d := soma.Points, soma.Diameters
			if !threePointConforms(p[0], d[0], p[1], d[1], p[2], d[2]) {
				msg := fmt.Sprintf("%s: three-point soma does not follow the NeuroMorpho convention", m.Source())
				return m.Handler().Emit(warning.SomaNonConform, msg)
			}
		}
	case morph.SomaCylinders:
	default:
		msg := fmt.Sprintf("%s: %s soma written as a chain of cylinders", m.Source(), soma.Type)
		return m.Handler().Emit(warning.SomaNonConform, msg)
	}
	return nil
}

func checkNoPerimeters(m *morph.Morphology) error {
	for _, s := range m.Sections() {
		if len(s.Perimeters) > 0 {
			return writerErr("section %d carries perimeters, which this format cannot store", s.ID())
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
