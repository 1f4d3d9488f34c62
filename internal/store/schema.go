package store

// One row per morphology; the flat arrays of a snapshot live in
// snappy-compressed little-endian blobs, the section tables in their own rows.
const schema = `
CREATE TABLE IF NOT EXISTS morphologies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	source TEXT,
	family INTEGER NOT NULL,
	soma_type INTEGER NOT NULL,
	format TEXT NOT NULL DEFAULT '',
	major INTEGER NOT NULL DEFAULT 0,
	minor INTEGER NOT NULL DEFAULT 0,
	section_count INTEGER NOT NULL,
	point_count INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	points BLOB,
	diameters BLOB,
	perimeters BLOB,
	soma_points BLOB,
	soma_diameters BLOB,
	mito_neurite_ids BLOB,
	mito_path_lengths BLOB,
	mito_diameters BLOB,
	er_section_indices BLOB,
	er_volumes BLOB,
	er_surface_areas BLOB,
	er_filament_counts BLOB
);
CREATE INDEX IF NOT EXISTS idx_morphologies_name ON morphologies(name);

CREATE TABLE IF NOT EXISTS sections (
	morphology_id TEXT NOT NULL REFERENCES morphologies(id) ON DELETE CASCADE,
	tree TEXT NOT NULL,
	idx INTEGER NOT NULL,
	point_offset INTEGER NOT NULL,
	parent INTEGER NOT NULL,
	type INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (morphology_id, tree, idx)
);

CREATE TABLE IF NOT EXISTS markers (
	morphology_id TEXT NOT NULL REFERENCES morphologies(id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	label TEXT NOT NULL,
	section_id INTEGER NOT NULL,
	points BLOB,
	diameters BLOB,
	PRIMARY KEY (morphology_id, idx)
);
`

const (
	treeNeurite = "neurite"
	treeMito    = "mito"
)
