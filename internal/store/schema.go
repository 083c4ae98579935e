package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    record_count INTEGER NOT NULL DEFAULT 0,
    excluded_count INTEGER NOT NULL DEFAULT 0,
    skipped_count INTEGER NOT NULL DEFAULT 0,
    output_path TEXT
);

CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    program_name TEXT NOT NULL,
    run_counter INTEGER NOT NULL,
    focus_count INTEGER NOT NULL,
    focus_time_ms INTEGER NOT NULL,
    focus_time TEXT NOT NULL,
    last_executed_raw INTEGER NOT NULL,
    last_executed TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
CREATE INDEX IF NOT EXISTS idx_records_program ON records(program_name);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
