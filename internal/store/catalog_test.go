package store

import (
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"morphkit/arbor/internal/morph"
)

// setupTestDB creates an in-memory catalog with the full schema
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { conn.Close() })
	return &DB{conn: conn, Path: ":memory:"}
}

// forkProps is a three-section axon with a soma, one mitochondrion and a marker
func forkProps() *morph.Properties {
	return &morph.Properties{
		PointLevel: morph.PointLevel{
			Points: []morph.Point{
				{0, 0, 0}, {0, 5, 0},
				{0, 5, 0}, {3, 5, 0},
				{0, 5, 0}, {-3, 5, 0},
			},
			Diameters: []float64{1, 1, 1, 0.5, 1, 0.5},
		},
		Sections: []morph.SectionRecord{{Offset: 0, Parent: -1}, {Offset: 2, Parent: 0}, {Offset: 4, Parent: 0}},
		Types:    []morph.SectionType{morph.SectionAxon, morph.SectionAxon, morph.SectionAxon},
		Soma: morph.PointLevel{
			Points:    []morph.Point{{0, 0, 0}},
			Diameters: []float64{2},
		},
		SomaType: morph.SomaSinglePoint,
		Mito: morph.MitoLevel{
			MitoPointLevel: morph.MitoPointLevel{
				NeuriteIDs:          []uint32{0, 1},
				RelativePathLengths: []float64{0.25, 0.5},
				Diameters:           []float64{0.1, 0.1},
			},
			Sections: []morph.SectionRecord{{Offset: 0, Parent: -1}},
		},
		Family:  morph.FamilyNeuron,
		Version: morph.Version{Format: "swc", Major: 1, Minor: 0},
		Markers: []morph.Marker{{
			Label:      "Dot1",
			SectionID:  1,
			PointLevel: morph.PointLevel{Points: []morph.Point{{1, 2, 3}}, Diameters: []float64{0}},
		}},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	d := setupTestDB(t)
	p := forkProps()

	id, err := d.Save("fork", "fork.swc", p)
	if err != nil {
		t.Fatal(err)
	}
	if len(id) != 36 {
		t.Errorf("expected a UUID, got %q", id)
	}

	got, err := d.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Equal(got) {
		t.Errorf("loaded morphology differs from saved one")
	}
	if got.Version != p.Version {
		t.Errorf("expected version %v, got %v", p.Version, got.Version)
	}
	if got.Family != morph.FamilyNeuron {
		t.Errorf("expected neuron, got %v", got.Family)
	}
	if len(got.Markers) != 1 || got.Markers[0].Label != "Dot1" || got.Markers[0].SectionID != 1 {
		t.Errorf("unexpected markers %+v", got.Markers)
	}
	if len(got.Mito.Sections) != 1 || got.Mito.Len() != 2 {
		t.Errorf("unexpected mitochondria %+v", got.Mito)
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	d := setupTestDB(t)
	p := forkProps()
	p.Types = p.Types[:1]

	if _, err := d.Save("bad", "", p); err == nil {
		t.Fatal("expected validation error")
	}
	entries, err := d.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected nothing stored, got %d entries", len(entries))
	}
}

func TestLoad_NotFound(t *testing.T) {
	d := setupTestDB(t)
	_, err := d.Load("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	d := setupTestDB(t)
	id, err := d.Save("fork", "", forkProps())
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Delete(id); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Load(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	var n int
	if err := d.conn.QueryRow("SELECT COUNT(*) FROM sections").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected section rows removed, %d left", n)
	}
	if err := d.Delete(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListAndStats(t *testing.T) {
	d := setupTestDB(t)
	for _, name := range []string{"alpha", "beta"} {
		if _, err := d.Save(name, name+".swc", forkProps()); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := d.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.SectionCount != 3 || e.PointCount != 6 {
			t.Errorf("%s: expected 3 sections and 6 points, got %d and %d", e.Name, e.SectionCount, e.PointCount)
		}
		if e.Family != "neuron" {
			t.Errorf("%s: expected family neuron, got %q", e.Name, e.Family)
		}
		if e.Source != e.Name+".swc" {
			t.Errorf("%s: unexpected source %q", e.Name, e.Source)
		}
	}

	s, err := d.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if s != (Stats{Morphologies: 2, Sections: 6, Points: 12, Markers: 2}) {
		t.Errorf("unexpected stats %+v", s)
	}

	found, err := d.SearchByName("ALP")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Name != "alpha" {
		t.Errorf("expected alpha, got %+v", found)
	}
}

func TestResolve(t *testing.T) {
	d := setupTestDB(t)
	id, err := d.Save("fork", "", forkProps())
	if err != nil {
		t.Fatal(err)
	}

	got, err := d.Resolve(id[:8])
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Errorf("expected %s, got %s", id, got)
	}

	if _, err := d.Resolve("zzzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := d.Save("other", "", forkProps()); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Resolve(""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty ref, got %v", err)
	}
	entries, _ := d.List()
	common := commonPrefix(entries[0].ID, entries[1].ID)
	if common != "" {
		if _, err := d.Resolve(common); !errors.Is(err, ErrAmbiguous) {
			t.Errorf("expected ErrAmbiguous for %q, got %v", common, err)
		}
	}
}

func commonPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}

func TestOpenDB_File(t *testing.T) {
	path := t.TempDir() + "/catalog.db"
	d, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := d.Save("fork", "", forkProps())
	if err != nil {
		t.Fatal(err)
	}
	d.Close()

	d, err = OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if _, err := d.Get(id); err != nil {
		t.Errorf("expected entry to survive reopen: %v", err)
	}
}
