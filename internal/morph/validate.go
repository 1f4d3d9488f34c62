package morph

import (
	"fmt"
	"strconv"
	"strings"

	"morphkit/arbor/internal/warning"
)

// checkAppend runs the append policy on a not-yet-linked section.
// Both checks only report; a non-nil error means the handler raised.
func (m *Morphology) checkAppend(parent, child *Section) error {
	empty := child.Empty()
	if empty {
		if err := m.handler.Emit(warning.AppendingEmptySection, appendingEmptyMessage(m.source, child.id)); err != nil {
			return err
		}
	}
	if parent == nil || empty || m.handler.IsIgnored(warning.WrongDuplicate) {
		return nil
	}
	if !duplicateMatches(parent.PointLevel, child.PointLevel) {
		return m.handler.Emit(warning.WrongDuplicate, wrongDuplicateMessage(m.source, parent, child))
	}
	return nil
}

// duplicateMatches reports whether child starts where parent ends.
// An empty parent always matches; an empty child never does.
func duplicateMatches(parent, child PointLevel) bool {
	if parent.Empty() {
		return true
	}
	if child.Empty() {
		return false
	}
	last := parent.Len() - 1
	return parent.Points[last] == child.Points[0] && parent.Diameters[last] == child.Diameters[0]
}

func sourcePrefix(uri string) string {
	if uri == "" {
		return ""
	}
	return uri + ": "
}

func appendingEmptyMessage(uri string, id uint32) string {
	return fmt.Sprintf("%sappending empty section with id: %d", sourcePrefix(uri), id)
}

func wrongDuplicateMessage(uri string, parent, child *Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%swhile appending section: %d to parent: %d", sourcePrefix(uri), child.id, parent.id)
	switch {
	case parent.Empty():
		b.WriteString("\nthe parent section is empty")
	case child.Empty():
		b.WriteString("\nthe current section has no points, it should at least contain the parent section last point")
	default:
		last := parent.Len() - 1
		b.WriteString("\nthe section first point should be the parent section last point")
		b.WriteString("\n                   : X Y Z Diameter")
		fmt.Fprintf(&b, "\nparent last point  : %s", formatPoint(parent.Points[last], parent.Diameters[last]))
		fmt.Fprintf(&b, "\nchild first point  : %s", formatPoint(child.Points[0], child.Diameters[0]))
	}
	return b.String()
}

func onlyChildMessage(uri string, parentID, childID uint32) string {
	return fmt.Sprintf("%ssection: %d is the only child of section: %d\nit will be merged with the parent section",
		sourcePrefix(uri), childID, parentID)
}

func formatPoint(p Point, d float64) string {
	parts := []string{
		strconv.FormatFloat(p[0], 'f', -1, 64),
		strconv.FormatFloat(p[1], 'f', -1, 64),
		strconv.FormatFloat(p[2], 'f', -1, 64),
		strconv.FormatFloat(d, 'f', -1, 64),
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
