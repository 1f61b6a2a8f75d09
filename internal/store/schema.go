package store

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notebooks (
	id INTEGER PRIMARY KEY,
	guid TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL,
	action INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS notes (
	id INTEGER PRIMARY KEY,
	guid TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	notebook_id INTEGER NOT NULL REFERENCES notebooks(id) ON DELETE CASCADE,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	place TEXT NOT NULL DEFAULT '',
	action INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS notes_by_notebook ON notes(notebook_id, action);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY(note_id, tag_id)
);

CREATE TABLE IF NOT EXISTS resources (
	id INTEGER PRIMARY KEY,
	note_id INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	file_name TEXT NOT NULL,
	mime TEXT NOT NULL,
	hash TEXT NOT NULL,
	data BLOB
);

CREATE INDEX IF NOT EXISTS resources_by_note ON resources(note_id);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
