package store

import "errors"

var (
	// ErrNotFound is returned when no catalog entry matches an id or prefix
	ErrNotFound = errors.New("morphology not found")
	// ErrAmbiguous is returned when an id prefix matches more than one entry
	ErrAmbiguous = errors.New("ambiguous id prefix")
	// ErrCorrupt is returned when a stored blob cannot be decoded
	ErrCorrupt = errors.New("corrupt blob")
)

// Entry is the catalog row of a stored morphology, without its arrays
type Entry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Source       string `json:"source"`
	Family       string `json:"family"`
	SomaType     string `json:"soma_type"`
	Format       string `json:"format"`
	Major        uint32 `json:"major"`
	Minor        uint32 `json:"minor"`
	SectionCount int    `json:"section_count"`
	PointCount   int    `json:"point_count"`
	CreatedAt    int64  `json:"created_at"` // Unix millis
}

// Stats summarises the catalog
type Stats struct {
	Morphologies int `json:"morphologies"`
	Sections     int `json:"sections"`
	Points       int `json:"points"`
	Markers      int `json:"markers"`
}
