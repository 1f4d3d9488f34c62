// Package codec reads and writes morphology files. Formats are chosen by
// file extension from a fixed table.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"morphkit/arbor/internal/morph"
	"morphkit/arbor/internal/warning"
)

type (
	readFunc  func(r io.Reader, path string, h warning.Handler) (*morph.Properties, error)
	writeFunc func(w io.Writer, m *morph.Morphology) error
)

type format struct {
	name  string
	read  readFunc
	write writeFunc
}

var (
	swcFormat = format{name: "swc", read: ReadSWC, write: WriteSWC}
	ascFormat = format{name: "asc", read: ReadASC, write: WriteASC}
	h5Format  = format{
		name: "h5",
		read: func(_ io.Reader, path string, _ warning.Handler) (*morph.Properties, error) {
			return nil, fmt.Errorf("%s: %w: no HDF5 backend", path, ErrUnsupported)
		},
		write: func(io.Writer, *morph.Morphology) error {
			return fmt.Errorf("%w: no HDF5 backend", ErrUnsupported)
		},
	}
)

var formats = map[string]format{
	".swc": swcFormat,
	".SWC": swcFormat,
	".asc": ascFormat,
	".ASC": ascFormat,
	".h5":  h5Format,
	".H5":  h5Format,
}

func lookup(path string) (format, error) {
	ext := filepath.Ext(path)
	f, ok := formats[ext]
	if !ok {
		return format{}, fmt.Errorf("%w: %q (%s)", ErrUnknownFileType, ext, path)
	}
	return f, nil
}

// Extensions lists the extensions the dispatch table recognises
func Extensions() []string {
	out := make([]string, 0, len(formats))
	for ext := range formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// FormatOf returns the lowercase format name for path
func FormatOf(path string) (string, error) {
	f, err := lookup(path)
	if err != nil {
		return "", err
	}
	return f.name, nil
}

// Read loads path into a snapshot without applying modifiers
func Read(path string, h warning.Handler) (*morph.Properties, error) {
	f, err := lookup(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()
	return f.read(file, path, h)
}

// Load reads path and hydrates it into a mutable morphology with mods applied
func Load(path string, mods morph.Modifier, h warning.Handler) (*morph.Morphology, error) {
	if h == nil {
		h = warning.NewPrinter(nil)
	}
	props, err := Read(path, h)
	if err != nil {
		return nil, err
	}
	m, err := morph.FromProperties(props, mods, morph.WithHandler(h), morph.WithSource(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadProperties reads path and returns its snapshot with mods applied
func LoadProperties(path string, mods morph.Modifier, h warning.Handler) (*morph.Properties, error) {
	if mods == morph.NoModifier {
		return Read(path, h)
	}
	m, err := Load(path, mods, h)
	if err != nil {
		return nil, err
	}
	return m.BuildReadOnly()
}

// Write serialises m to path in the format its extension names. When the
// writer produces nothing (an empty morphology) no file is created.
func Write(m *morph.Morphology, path string) error {
	f, err := lookup(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.write(&buf, m); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if buf.Len() == 0 {
		return nil
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteProperties writes a snapshot to path
func WriteProperties(p *morph.Properties, path string, h warning.Handler) error {
	var opts []morph.Option
	if h != nil {
		opts = append(opts, morph.WithHandler(h))
	}
	m, err := morph.FromProperties(p, morph.NoModifier, append(opts, morph.WithSource(path))...)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return Write(m, path)
}

// suppress ignores kinds on h and returns a func restoring the previous state
func suppress(h warning.Handler, kinds ...warning.Kind) func() {
	prev := make([]bool, len(kinds))
	for i, k := range kinds {
		prev[i] = h.IsIgnored(k)
		h.SetIgnoredWarning(k, true)
	}
	return func() {
		for i, k := range kinds {
			h.SetIgnoredWarning(k, prev[i])
		}
	}
}
