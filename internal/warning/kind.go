package warning

import (
	"fmt"
	"strings"
)

// Kind identifies a recoverable data-quality condition
type Kind int

const (
	Undefined Kind = iota
	MitochondriaWriteNotSupported
	WriteNoSoma
	SomaNonConform
	NoSomaFound
	DisconnectedNeurite
	WrongDuplicate
	AppendingEmptySection
	WrongRootPoint
	OnlyChild
	WriteEmptyMorphology
	ZeroDiameter
	SectionTypeChanged
	WriteUndefinedSoma
)

var kindNames = [...]string{
	Undefined:                     "undefined",
	MitochondriaWriteNotSupported: "mitochondria_write_not_supported",
	WriteNoSoma:                   "write_no_soma",
	SomaNonConform:                "soma_non_conform",
	NoSomaFound:                   "no_soma_found",
	DisconnectedNeurite:           "disconnected_neurite",
	WrongDuplicate:                "wrong_duplicate",
	AppendingEmptySection:         "appending_empty_section",
	WrongRootPoint:                "wrong_root_point",
	OnlyChild:                     "only_child",
	WriteEmptyMorphology:          "write_empty_morphology",
	ZeroDiameter:                  "zero_diameter",
	SectionTypeChanged:            "section_type_changed",
	WriteUndefinedSoma:            "write_undefined_soma",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns every known kind in declaration order
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind maps a snake_case name (case-insensitive, dashes allowed) to a Kind
func ParseKind(name string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, n := range kindNames {
		if n == norm {
			return Kind(i), nil
		}
	}
	return Undefined, fmt.Errorf("unknown warning kind %q", name)
}
