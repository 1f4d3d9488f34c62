package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"morphkit/arbor/internal/morph"
)

// Save stores a snapshot under a fresh UUID and returns the id.
// Annotations are not persisted.
func (d *DB) Save(name, source string, p *morph.Properties) (string, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("saving %s: %w", name, err)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO morphologies (
			id, name, source, family, soma_type, format, major, minor,
			section_count, point_count, created_at,
			points, diameters, perimeters, soma_points, soma_diameters,
			mito_neurite_ids, mito_path_lengths, mito_diameters,
			er_section_indices, er_volumes, er_surface_areas, er_filament_counts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, name, source, int(p.Family), int(p.SomaType), p.Version.Format, p.Version.Major, p.Version.Minor,
		p.SectionCount(), p.Len(), time.Now().UnixMilli(),
		encodePoints(p.Points), encodeFloat64s(p.Diameters), encodeFloat64s(p.Perimeters),
		encodePoints(p.Soma.Points), encodeFloat64s(p.Soma.Diameters),
		encodeUint32s(p.Mito.NeuriteIDs), encodeFloat64s(p.Mito.RelativePathLengths), encodeFloat64s(p.Mito.Diameters),
		encodeUint32s(p.ER.SectionIndices), encodeFloat64s(p.ER.Volumes), encodeFloat64s(p.ER.SurfaceAreas), encodeUint32s(p.ER.FilamentCounts),
	)
	if err != nil {
		return "", fmt.Errorf("inserting morphology: %w", err)
	}

	if err := insertSections(tx, id, treeNeurite, p.Sections, p.Types); err != nil {
		return "", err
	}
	if err := insertSections(tx, id, treeMito, p.Mito.Sections, nil); err != nil {
		return "", err
	}

	for i, mk := range p.Markers {
		_, err := tx.Exec(`
			INSERT INTO markers (morphology_id, idx, label, section_id, points, diameters)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, mk.Label, mk.SectionID, encodePoints(mk.Points), encodeFloat64s(mk.Diameters))
		if err != nil {
			return "", fmt.Errorf("inserting marker %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return id, nil
}

func insertSections(tx *sql.Tx, id, tree string, sections []morph.SectionRecord, types []morph.SectionType) error {
	stmt, err := tx.Prepare(`
		INSERT INTO sections (morphology_id, tree, idx, point_offset, parent, type)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing section insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range sections {
		typ := 0
		if types != nil {
			typ = int(types[i])
		}
		if _, err := stmt.Exec(id, tree, i, s.Offset, s.Parent, typ); err != nil {
			return fmt.Errorf("inserting %s section %d: %w", tree, i, err)
		}
	}
	return nil
}

// Load rebuilds the snapshot stored under id
func (d *DB) Load(id string) (*morph.Properties, error) {
	var (
		family, somaType int
		p                morph.Properties
		blobs            [12][]byte
	)
	err := d.conn.QueryRow(`
		SELECT family, soma_type, format, major, minor,
		       points, diameters, perimeters, soma_points, soma_diameters,
		       mito_neurite_ids, mito_path_lengths, mito_diameters,
		       er_section_indices, er_volumes, er_surface_areas, er_filament_counts
		FROM morphologies WHERE id = ?
	`, id).Scan(
		&family, &somaType, &p.Version.Format, &p.Version.Major, &p.Version.Minor,
		&blobs[0], &blobs[1], &blobs[2], &blobs[3], &blobs[4],
		&blobs[5], &blobs[6], &blobs[7],
		&blobs[8], &blobs[9], &blobs[10], &blobs[11],
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", id, err)
	}
	p.Family = morph.CellFamily(family)
	p.SomaType = morph.SomaType(somaType)

	dec := blobDecoder{}
	p.Points = dec.points(blobs[0])
	p.Diameters = dec.float64s(blobs[1])
	p.Perimeters = dec.float64s(blobs[2])
	p.Soma.Points = dec.points(blobs[3])
	p.Soma.Diameters = dec.float64s(blobs[4])
	p.Mito.NeuriteIDs = dec.uint32s(blobs[5])
	p.Mito.RelativePathLengths = dec.float64s(blobs[6])
	p.Mito.Diameters = dec.float64s(blobs[7])
	p.ER.SectionIndices = dec.uint32s(blobs[8])
	p.ER.Volumes = dec.float64s(blobs[9])
	p.ER.SurfaceAreas = dec.float64s(blobs[10])
	p.ER.FilamentCounts = dec.uint32s(blobs[11])
	if dec.err != nil {
		return nil, fmt.Errorf("loading %s: %w", id, dec.err)
	}

	if p.Sections, p.Types, err = d.loadSections(id, treeNeurite); err != nil {
		return nil, err
	}
	if p.Mito.Sections, _, err = d.loadSections(id, treeMito); err != nil {
		return nil, err
	}
	if p.Markers, err = d.loadMarkers(id); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", id, err)
	}
	return &p, nil
}

func (d *DB) loadSections(id, tree string) ([]morph.SectionRecord, []morph.SectionType, error) {
	rows, err := d.conn.Query(`
		SELECT point_offset, parent, type FROM sections
		WHERE morphology_id = ? AND tree = ? ORDER BY idx
	`, id, tree)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s sections: %w", tree, err)
	}
	defer rows.Close()

	var (
		sections []morph.SectionRecord
		types    []morph.SectionType
	)
	for rows.Next() {
		var s morph.SectionRecord
		var typ int
		if err := rows.Scan(&s.Offset, &s.Parent, &typ); err != nil {
			return nil, nil, err
		}
		sections = append(sections, s)
		types = append(types, morph.SectionType(typ))
	}
	return sections, types, rows.Err()
}

func (d *DB) loadMarkers(id string) ([]morph.Marker, error) {
	rows, err := d.conn.Query(`
		SELECT label, section_id, points, diameters FROM markers
		WHERE morphology_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, fmt.Errorf("loading markers: %w", err)
	}
	defer rows.Close()

	var markers []morph.Marker
	for rows.Next() {
		var (
			mk         morph.Marker
			points, ds []byte
		)
		if err := rows.Scan(&mk.Label, &mk.SectionID, &points, &ds); err != nil {
			return nil, err
		}
		dec := blobDecoder{}
		mk.Points = dec.points(points)
		mk.Diameters = dec.float64s(ds)
		if dec.err != nil {
			return nil, fmt.Errorf("marker %q: %w", mk.Label, dec.err)
		}
		markers = append(markers, mk)
	}
	return markers, rows.Err()
}

// Delete removes a stored morphology and its rows
func (d *DB) Delete(id string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM morphologies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	// cascades cover these when foreign keys are on; be explicit for older files
	for _, table := range []string{"sections", "markers"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE morphology_id = ?", id); err != nil {
			return fmt.Errorf("deleting %s of %s: %w", table, id, err)
		}
	}
	return tx.Commit()
}

// blobDecoder keeps the first decoding error so a row can be decoded in one pass
type blobDecoder struct {
	err error
}

func (b *blobDecoder) float64s(data []byte) []float64 {
	if b.err != nil {
		return nil
	}
	out, err := decodeFloat64s(data)
	b.err = err
	return out
}

func (b *blobDecoder) uint32s(data []byte) []uint32 {
	if b.err != nil {
		return nil
	}
	out, err := decodeUint32s(data)
	b.err = err
	return out
}

func (b *blobDecoder) points(data []byte) []morph.Point {
	if b.err != nil {
		return nil
	}
	out, err := decodePoints(data)
	b.err = err
	return out
}
