package morph

import (
	"fmt"
	"strings"
)

// SectionType classifies a neurite section
type SectionType int

const (
	SectionUndefined      SectionType = 0
	SectionSoma           SectionType = 1
	SectionAxon           SectionType = 2
	SectionBasalDendrite  SectionType = 3
	SectionApicalDendrite SectionType = 4

	// Glia and spine families reuse the axon/dendrite slots
	SectionGliaPerivascularProcess SectionType = 2
	SectionGliaProcess             SectionType = 3
	SectionSpineNeck               SectionType = 2
	SectionSpineHead               SectionType = 3

	SectionCustom5         SectionType = 5
	SectionCustom6         SectionType = 6
	SectionCustom7         SectionType = 7
	SectionCustom8         SectionType = 8
	SectionCustom9         SectionType = 9
	SectionCustom10        SectionType = 10
	SectionOutOfRangeStart SectionType = 11

	SectionAll SectionType = 32
)

func (t SectionType) String() string {
	switch {
	case t == SectionUndefined:
		return "undefined"
	case t == SectionSoma:
		return "soma"
	case t == SectionAxon:
		return "axon"
	case t == SectionBasalDendrite:
		return "basal_dendrite"
	case t == SectionApicalDendrite:
		return "apical_dendrite"
	case t >= SectionCustom5 && t < SectionOutOfRangeStart:
		return fmt.Sprintf("custom_%d", int(t))
	case t == SectionAll:
		return "all"
	default:
		return fmt.Sprintf("section_type(%d)", int(t))
	}
}

// NameIn returns the family-specific name of t
func (t SectionType) NameIn(family CellFamily) string {
	switch family {
	case FamilyGlia:
		switch t {
		case SectionGliaPerivascularProcess:
			return "perivascular_process"
		case SectionGliaProcess:
			return "glia_process"
		}
	case FamilySpine:
		switch t {
		case SectionSpineNeck:
			return "spine_neck"
		case SectionSpineHead:
			return "spine_head"
		}
	}
	return t.String()
}

// Valid reports whether t may label a regular (non-soma) section
func (t SectionType) Valid() bool {
	return t > SectionSoma && t < SectionOutOfRangeStart
}

// SomaType tags the shape convention used for the soma points
type SomaType int

const (
	SomaUndefined SomaType = iota
	SomaSinglePoint
	SomaThreePointCylinders
	SomaCylinders
	SomaSimpleContour
)

func (t SomaType) String() string {
	switch t {
	case SomaUndefined:
		return "undefined"
	case SomaSinglePoint:
		return "single_point"
	case SomaThreePointCylinders:
		return "three_point_cylinders"
	case SomaCylinders:
		return "cylinders"
	case SomaSimpleContour:
		return "simple_contour"
	default:
		return fmt.Sprintf("soma_type(%d)", int(t))
	}
}

// CellFamily is the kind of cell a Morphology represents
type CellFamily int

const (
	FamilyNeuron CellFamily = iota
	FamilyGlia
	FamilySpine
)

func (f CellFamily) String() string {
	switch f {
	case FamilyNeuron:
		return "neuron"
	case FamilyGlia:
		return "glia"
	case FamilySpine:
		return "spine"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Modifier is a bit set of structural transforms applied after loading
type Modifier uint

const (
	NoModifier        Modifier = 0
	TwoPointsSections Modifier = 1 << 0
	SomaSphere        Modifier = 1 << 1
	NoDuplicates      Modifier = 1 << 2
	NrnOrder          Modifier = 1 << 3
)

var modifierNames = []struct {
	flag Modifier
	name string
}{
	{TwoPointsSections, "two_points_sections"},
	{SomaSphere, "soma_sphere"},
	{NoDuplicates, "no_duplicates"},
	{NrnOrder, "nrn_order"},
}

func (m Modifier) String() string {
	if m == NoModifier {
		return "none"
	}
	var parts []string
	for _, mn := range modifierNames {
		if m&mn.flag != 0 {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseModifiers turns names such as "soma_sphere" or "nrn-order" into a Modifier
func ParseModifiers(names []string) (Modifier, error) {
	var m Modifier
	for _, raw := range names {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
		if name == "" || name == "none" {
			continue
		}
		found := false
		for _, mn := range modifierNames {
			if mn.name == name {
				m |= mn.flag
				found = true
				break
			}
		}
		if !found {
			return NoModifier, fmt.Errorf("unknown modifier %q", raw)
		}
	}
	return m, nil
}
