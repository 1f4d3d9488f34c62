package store

import (
	"database/sql"
	"errors"
	"fmt"

	"morphkit/arbor/internal/morph"
)

const entryColumns = `id, name, source, family, soma_type, format, major, minor,
	       section_count, point_count, created_at`

// scanEntry scans a row holding entryColumns in order
func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		e                Entry
		source           sql.NullString
		family, somaType int
	)
	err := scanner.Scan(
		&e.ID, &e.Name, &source, &family, &somaType, &e.Format, &e.Major, &e.Minor,
		&e.SectionCount, &e.PointCount, &e.CreatedAt,
	)
	e.Source = source.String
	e.Family = morph.CellFamily(family).String()
	e.SomaType = morph.SomaType(somaType).String()
	return e, err
}

func (d *DB) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// List returns all entries, newest first
func (d *DB) List() ([]Entry, error) {
	return d.queryEntries(`SELECT ` + entryColumns + ` FROM morphologies ORDER BY created_at DESC, name`)
}

// Get returns the entry with the exact id
func (d *DB) Get(id string) (*Entry, error) {
	row := d.conn.QueryRow(`SELECT `+entryColumns+` FROM morphologies WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SearchByIDPrefix finds entries whose id starts with prefix
func (d *DB) SearchByIDPrefix(prefix string, limit int) ([]Entry, error) {
	return d.queryEntries(`SELECT `+entryColumns+` FROM morphologies WHERE id LIKE ? ORDER BY id LIMIT ?`,
		prefix+"%", limit)
}

// SearchByName finds entries whose name contains needle, case-insensitively
func (d *DB) SearchByName(needle string) ([]Entry, error) {
	return d.queryEntries(`SELECT `+entryColumns+` FROM morphologies WHERE name LIKE ? ORDER BY name`,
		"%"+needle+"%")
}

// Resolve expands an id or unique id prefix to a full id
func (d *DB) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	matches, err := d.SearchByIDPrefix(ref, 2)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0].ID, nil
	default:
		for _, m := range matches {
			if m.ID == ref {
				return ref, nil
			}
		}
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, ref)
	}
}

// Stats counts what the catalog holds
func (d *DB) Stats() (Stats, error) {
	var s Stats
	err := d.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(section_count), 0), COALESCE(SUM(point_count), 0)
		FROM morphologies
	`).Scan(&s.Morphologies, &s.Sections, &s.Points)
	if err != nil {
		return s, fmt.Errorf("counting morphologies: %w", err)
	}
	if err := d.conn.QueryRow("SELECT COUNT(*) FROM markers").Scan(&s.Markers); err != nil {
		return s, fmt.Errorf("counting markers: %w", err)
	}
	return s, nil
}
