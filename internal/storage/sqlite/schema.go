package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    rank TEXT NOT NULL DEFAULT '',
    completed INTEGER NOT NULL DEFAULT 0,
    title TEXT NOT NULL DEFAULT '',
    fields TEXT NOT NULL DEFAULT '{}',
    version INTEGER NOT NULL DEFAULT 1,
    archived INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_order ON records(completed, rank);
CREATE INDEX IF NOT EXISTS idx_records_archived ON records(archived);
`
