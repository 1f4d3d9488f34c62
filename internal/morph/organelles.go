package morph

import "fmt"

// EndoplasmicReticulum holds per-section ER measurements as parallel arrays
type EndoplasmicReticulum struct {
	SectionIndices []uint32  `json:"section_indices"`
	Volumes        []float64 `json:"volumes"`
	SurfaceAreas   []float64 `json:"surface_areas"`
	FilamentCounts []uint32  `json:"filament_counts"`
}

// Len returns the number of ER entries
func (er *EndoplasmicReticulum) Len() int { return len(er.SectionIndices) }

// Validate checks that every array has the same length
func (er *EndoplasmicReticulum) Validate() error {
	n := len(er.SectionIndices)
	if len(er.Volumes) != n || len(er.SurfaceAreas) != n || len(er.FilamentCounts) != n {
		return fmt.Errorf("%w: endoplasmic reticulum arrays have lengths %d/%d/%d/%d",
			ErrDataShape, n, len(er.Volumes), len(er.SurfaceAreas), len(er.FilamentCounts))
	}
	return nil
}

// Clone deep-copies the arrays
func (er *EndoplasmicReticulum) Clone() EndoplasmicReticulum {
	return EndoplasmicReticulum{
		SectionIndices: append([]uint32(nil), er.SectionIndices...),
		Volumes:        append([]float64(nil), er.Volumes...),
		SurfaceAreas:   append([]float64(nil), er.SurfaceAreas...),
		FilamentCounts: append([]uint32(nil), er.FilamentCounts...),
	}
}

// Marker is a labelled set of points, as found in Neurolucida files.
// SectionID is -1 when the marker is not attached to a section.
type Marker struct {
	Label     string `json:"label"`
	SectionID int    `json:"section_id"`
	PointLevel
}

// AnnotationKind classifies an Annotation
type AnnotationKind int

const (
	AnnotationSingleChild AnnotationKind = iota
)

func (k AnnotationKind) String() string {
	switch k {
	case AnnotationSingleChild:
		return "single_child"
	default:
		return fmt.Sprintf("annotation(%d)", int(k))
	}
}

// Annotation flags a section found by a consistency pass
type Annotation struct {
	Kind      AnnotationKind `json:"kind"`
	SectionID uint32         `json:"section_id"`
	Line      int            `json:"line"`
	Details   string         `json:"details"`
	PointLevel
}
