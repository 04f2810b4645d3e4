package db

// SchemaVersion is the current database schema version
const SchemaVersion = 3

const schema = `
-- Imported job definitions (task schemas)
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    survey_id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL DEFAULT '',
    definition TEXT NOT NULL,
    imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Submissions; responses holds the encoded response map verbatim
CREATE TABLE IF NOT EXISTS submissions (
    id TEXT PRIMARY KEY,
    survey_id TEXT NOT NULL,
    loi_id TEXT NOT NULL,
    job_id TEXT NOT NULL,
    responses TEXT,
    created_by TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL,
    modified_by TEXT NOT NULL DEFAULT '{}',
    modified_at DATETIME NOT NULL,
    deleted_at DATETIME
);

-- Offline LOI mutation queue
CREATE TABLE IF NOT EXISTS loi_mutations (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    sync_status TEXT NOT NULL DEFAULT 'pending',
    survey_id TEXT NOT NULL,
    loi_id TEXT NOT NULL,
    job_id TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL DEFAULT '',
    client_timestamp DATETIME NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    location TEXT,
    polygon_vertices TEXT NOT NULL DEFAULT '[]',
    synced_at DATETIME
);

CREATE TABLE IF NOT EXISTS sync_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    direction TEXT NOT NULL DEFAULT 'push',
    mutation_type TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    device_id TEXT NOT NULL DEFAULT '',
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_submissions_job ON submissions(job_id);
CREATE INDEX IF NOT EXISTS idx_submissions_loi ON submissions(loi_id);
CREATE INDEX IF NOT EXISTS idx_loi_mutations_status ON loi_mutations(sync_status, client_timestamp);
CREATE INDEX IF NOT EXISTS idx_loi_mutations_loi ON loi_mutations(loi_id);

CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Migration defines a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of all migrations in order
var Migrations = []Migration{
	{
		Version:     2,
		Description: "Add sync_history table",
		SQL: `
CREATE TABLE IF NOT EXISTS sync_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    direction TEXT NOT NULL DEFAULT 'push',
    mutation_type TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    device_id TEXT NOT NULL DEFAULT '',
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		Version:     3,
		Description: "Track the last push error on queued mutations",
		SQL:         `ALTER TABLE loi_mutations ADD COLUMN last_error TEXT NOT NULL DEFAULT '';`,
	},
}
