package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"morphkit/arbor/internal/morph"
	"morphkit/arbor/internal/warning"
)

const incompleteLabel = "INCOMPLETE"

// ascHeader describes the s-expression being parsed: a marker (tokString),
// the cell body, or a neurite root with its parent section
type ascHeader struct {
	kind     tokenKind
	label    string
	parentID int
}

type ascParser struct {
	path string
	lex  *lexer
	m    *morph.Morphology
}

// ReadASC parses a Neurolucida ASC stream into a snapshot. Spines and
// unknown decorations (colors, fonts, names) are skipped; markers are kept.
func ReadASC(r io.Reader, path string, h warning.Handler) (*morph.Properties, error) {
	if h == nil {
		h = warning.NewPrinter(nil)
	}
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	toks, err := tokenize(path, string(src))
	if err != nil {
		return nil, err
	}
	defer suppress(h, warning.AppendingEmptySection, warning.WrongDuplicate)()

	p := &ascParser{
		path: path,
		lex:  &lexer{path: path, toks: toks},
		m:    morph.New(morph.WithHandler(h), morph.WithSource(path)),
	}
	if err := p.parseRoots(); err != nil {
		return nil, err
	}

	soma := p.m.Soma()
	switch soma.Len() {
	case 0, 2:
		soma.Type = morph.SomaUndefined
	case 1:
		return nil, parseErr(path, 0, ErrSomaError, "soma contour with a single point")
	default:
		soma.Type = morph.SomaSimpleContour
	}
	p.m.SetVersion(morph.Version{Format: "asc", Major: 1, Minor: 0})

	props, err := p.m.BuildReadOnly()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	props.Family = morph.FamilyNeuron
	return props, nil
}

func (p *ascParser) parseRoots() error {
	for !p.lex.ended() {
		if p.lex.current().kind == tokLParen {
			if err := p.lex.advance(); err != nil {
				return err
			}
			h, err := p.parseRootHeader()
			if err != nil {
				return err
			}
			if p.lex.current().kind != tokRParen {
				if err := p.parseSection(h); err != nil {
					return err
				}
			}
		}
		if !p.lex.ended() {
			if err := p.lex.advance(); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseRootHeader consumes the decorations of a top-level s-expression up to
// its first point
func (p *ascParser) parseRootHeader() (ascHeader, error) {
	h := ascHeader{kind: tokString, parentID: -1}
	for {
		cur, next := p.lex.current(), p.lex.peek()
		switch cur.kind {
		case tokEOF:
			return h, parseErr(p.path, cur.line, ErrRawData, "end of file inside neurite")
		case tokMarker:
			if err := p.lex.advance(); err != nil {
				return h, err
			}
		case tokWord:
			if err := p.lex.skipSexp(); err != nil {
				return h, err
			}
			if err := p.lex.consume(tokLParen, "after named block"); err != nil {
				return h, err
			}
		case tokString:
			h.label = strings.Trim(cur.text, `"`)
			if strings.EqualFold(strings.ReplaceAll(h.label, " ", ""), "CellBody") {
				h.kind = tokCellBody
			}
			if err := p.lex.advance(); err != nil {
				return h, err
			}
		case tokRParen:
			return h, nil
		case tokLParen:
			switch {
			case skippable(next.kind):
				if err := p.skipBlock(); err != nil {
					return h, err
				}
			case isNeuriteType(next.kind):
				h.kind = next.kind
				p.lex.pos += 2
				if err := p.lex.consume(tokRParen, "neurite type"); err != nil {
					return h, err
				}
			case next.kind == tokNumber:
				return h, nil
			default:
				return h, parseErr(p.path, next.line, ErrRawData, "unexpected token %q", next.text)
			}
		default:
			return h, parseErr(p.path, cur.line, ErrRawData, "unexpected token %q", cur.text)
		}
	}
}

// parseSection reads points until the section closes with ')' or '|',
// recursing into child branches
func (p *ascParser) parseSection(h ascHeader) error {
	var (
		points    []morph.Point
		diameters []float64
	)
	sectionID := p.m.Len()
	flush := func() error {
		id, err := p.createSection(h, morph.PointLevel{Points: points, Diameters: diameters})
		points, diameters = nil, nil
		if err == nil && id >= 0 {
			sectionID = id
		}
		return err
	}

	for {
		cur, next := p.lex.current(), p.lex.peek()
		switch {
		case cur.kind == tokEOF:
			return parseErr(p.path, cur.line, ErrRawData, "end of file inside neurite")
		case cur.kind == tokRParen || cur.kind == tokPipe:
			if len(points) > 0 {
				return flush()
			}
			return nil
		case isEndOfBranch(cur.kind):
			if cur.kind == tokIncomplete {
				p.m.AddMarker(morph.Marker{Label: incompleteLabel, SectionID: sectionID})
				if next.kind != tokRParen && next.kind != tokPipe {
					return parseErr(p.path, next.line, ErrRawData, "'Incomplete' tag must finish the branch, got %q", next.text)
				}
			}
			if err := p.lex.advance(); err != nil {
				return err
			}
		case cur.kind == tokLSpine:
			for !p.lex.ended() && p.lex.current().kind != tokRSpine {
				p.lex.pos++
			}
			if err := p.lex.consume(tokRSpine, "spine"); err != nil {
				return err
			}
		case cur.kind == tokLParen:
			switch {
			case skippable(next.kind):
				if err := p.skipBlock(); err != nil {
					return err
				}
			case next.kind == tokMarker:
				if err := p.parseMarker(next.text, sectionID); err != nil {
					return err
				}
			case next.kind == tokNumber:
				pt, d, err := p.parsePoint(h.kind == tokString)
				if err != nil {
					return err
				}
				points = append(points, pt)
				diameters = append(diameters, d)
			case next.kind == tokLParen:
				if len(points) > 0 {
					if err := flush(); err != nil {
						return err
					}
				}
				child := h
				child.parentID = sectionID
				if err := p.parseBranch(child); err != nil {
					return err
				}
			default:
				return parseErr(p.path, next.line, ErrRawData, "unexpected token %q", next.text)
			}
		case cur.kind == tokString:
			if err := p.lex.advance(); err != nil {
				return err
			}
		default:
			return parseErr(p.path, cur.line, ErrRawData, "unexpected token %q", cur.text)
		}
	}
}

// parseBranch reads '(' section { '|' section } ')'
func (p *ascParser) parseBranch(h ascHeader) error {
	if err := p.lex.consume(tokLParen, "branch"); err != nil {
		return err
	}
	for {
		if err := p.parseSection(h); err != nil {
			return err
		}
		if k := p.lex.current().kind; p.lex.ended() || (k != tokPipe && k != tokLParen) {
			break
		}
		if err := p.lex.advance(); err != nil {
			return err
		}
	}
	return p.lex.consume(tokRParen, "branch")
}

// parseMarker reads a marker block such as (Dot (Color White) (1 2 3) ...)
func (p *ascParser) parseMarker(label string, sectionID int) error {
	p.lex.pos += 2
	for p.lex.current().kind != tokLParen {
		if err := p.lex.advance(); err != nil {
			return err
		}
	}
	h := ascHeader{kind: tokString, label: label, parentID: sectionID}
	if err := p.parseSection(h); err != nil {
		return err
	}
	return p.lex.consume(tokRParen, "marker")
}

// parsePoint reads (x y z d [label]). Marker points may omit the diameter.
func (p *ascParser) parsePoint(marker bool) (morph.Point, float64, error) {
	var v [4]float64
	if err := p.lex.consume(tokLParen, "point"); err != nil {
		return morph.Point{}, 0, err
	}
	for i := range v {
		cur := p.lex.current()
		f, err := strconv.ParseFloat(cur.text, 64)
		if cur.kind != tokNumber || err != nil {
			return morph.Point{}, 0, parseErr(p.path, cur.line, ErrRawData, "cannot parse point value %q", cur.text)
		}
		v[i] = f
		if err := p.lex.advance(); err != nil {
			return morph.Point{}, 0, err
		}
		if marker && i == 2 && p.lex.current().kind == tokRParen {
			break
		}
	}
	if p.lex.current().kind == tokWord {
		p.lex.pos++
	}
	if err := p.lex.consume(tokRParen, "point"); err != nil {
		return morph.Point{}, 0, err
	}
	return morph.Point{v[0], v[1], v[2]}, v[3], nil
}

// createSection stores a finished point run as a marker, the soma or a
// section. It returns the id later children attach to, -1 for none.
func (p *ascParser) createSection(h ascHeader, pl morph.PointLevel) (int, error) {
	switch h.kind {
	case tokString:
		p.m.AddMarker(morph.Marker{Label: h.label, SectionID: h.parentID, PointLevel: pl})
		return -1, nil
	case tokCellBody:
		soma := p.m.Soma()
		if !soma.Empty() {
			return -1, parseErr(p.path, p.lex.line(), ErrSomaError, "soma already defined")
		}
		soma.PointLevel = pl
		return -1, nil
	}

	t := ascSectionType(h.kind)
	if h.parentID < 0 {
		s, err := p.m.AppendRootSection(pl, t)
		if err != nil {
			return -1, err
		}
		return int(s.ID()), nil
	}
	parent, err := p.m.Section(uint32(h.parentID))
	if err != nil {
		return -1, fmt.Errorf("%s:%d: %w", p.path, p.lex.line(), err)
	}
	// the child restarts from the parent's last point, with its own diameter
	if last := parent.Points[parent.Len()-1]; last != pl.Points[0] {
		pl.Points = append([]morph.Point{last}, pl.Points...)
		pl.Diameters = append([]float64{pl.Diameters[0]}, pl.Diameters...)
	}
	if pl.Len() == 1 {
		return h.parentID, nil
	}
	s, err := parent.AppendSection(pl, t)
	if err != nil {
		return -1, err
	}
	return int(s.ID()), nil
}

func (p *ascParser) skipBlock() error {
	if err := p.lex.advance(); err != nil {
		return err
	}
	return p.lex.skipSexp()
}

func skippable(k tokenKind) bool {
	switch k {
	case tokWord, tokColor, tokGenerated, tokHigh, tokIncomplete, tokLow, tokNormal, tokFont:
		return true
	}
	return false
}

func isNeuriteType(k tokenKind) bool {
	return k == tokAxon || k == tokApical || k == tokDendrite || k == tokCellBody
}

func isEndOfBranch(k tokenKind) bool {
	switch k {
	case tokGenerated, tokHigh, tokIncomplete, tokLow, tokNormal, tokMidpoint, tokOrigin:
		return true
	}
	return false
}

func ascSectionType(k tokenKind) morph.SectionType {
	switch k {
	case tokAxon:
		return morph.SectionAxon
	case tokApical:
		return morph.SectionApicalDendrite
	default:
		return morph.SectionBasalDendrite
	}
}

// WriteASC serialises m as Neurolucida ASC. The soma must be a contour.
func WriteASC(w io.Writer, m *morph.Morphology) error {
	soma := m.Soma()
	if soma.Empty() && m.Empty() {
		return m.Handler().Emit(warning.WriteEmptyMorphology, fmt.Sprintf("%s: skipping empty morphology", m.Source()))
	}
	if soma.Len() > 0 && soma.Len() < 3 {
		msg := fmt.Sprintf("%s: soma with %d points is not a contour", m.Source(), soma.Len())
		if err := m.Handler().Emit(warning.SomaNonConform, msg); err != nil {
			return err
		}
	}
	if err := soma.Validate(); err != nil {
		return writerErr("soma: %v", err)
	}
	if !m.Mitochondria().Empty() {
		return writerErr("mitochondria cannot be written to ASC")
	}
	if err := checkNoPerimeters(m); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if !soma.Empty() {
		fmt.Fprint(bw, "(\"CellBody\"\n  (Color Red)\n  (CellBody)\n")
		writeASCPoints(bw, soma.PointLevel, 2)
		fmt.Fprint(bw, ")\n\n")
	}
	for _, root := range m.RootSections() {
		switch root.Type() {
		case morph.SectionAxon:
			fmt.Fprint(bw, "( (Color Cyan)\n  (Axon)\n")
		case morph.SectionBasalDendrite:
			fmt.Fprint(bw, "( (Color Red)\n  (Dendrite)\n")
		case morph.SectionApicalDendrite:
			fmt.Fprint(bw, "( (Color Red)\n  (Apical)\n")
		default:
			return writerErr("section type %s cannot be written to ASC", root.Type())
		}
		writeASCSection(bw, root, 2)
		fmt.Fprint(bw, ")\n\n")
	}
	fmt.Fprintln(bw, "; Created by arbor")
	return bw.Flush()
}

func writeASCPoints(w io.Writer, pl morph.PointLevel, indent int) {
	pad := strings.Repeat(" ", indent)
	for i, p := range pl.Points {
		fmt.Fprintf(w, "%s(%s %s %s %s)\n", pad,
			formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2]), formatFloat(pl.Diameters[i]))
	}
}

func writeASCSection(w io.Writer, s *morph.Section, indent int) {
	writeASCPoints(w, s.PointLevel, indent)
	children := s.Children()
	if len(children) == 0 {
		return
	}
	pad := strings.Repeat(" ", indent)
	for i, c := range children {
		if i == 0 {
			fmt.Fprintf(w, "%s(\n", pad)
		} else {
			fmt.Fprintf(w, "%s|\n", pad)
		}
		writeASCSection(w, c, indent+2)
	}
	fmt.Fprintf(w, "%s)\n", pad)
}
