package store

// NotesDBSchema defines the single flat notes collection. There is no
// per-user partition: every client reads and writes the same table.
//
// created_at is stored as an RFC3339Nano UTC string so that lexicographic
// DESC ordering equals chronological newest-first ordering.
const NotesDBSchema = `
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL CHECK(length(content) <= 1048576),
    ai_title TEXT NOT NULL,
    ai_category TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at DESC);
`
