// ABOUTME: Ledger schema definitions for sync state and per-vendor outcomes
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_run_id TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	target TEXT NOT NULL,
	record_key TEXT NOT NULL,
	vendor_name TEXT,
	status TEXT NOT NULL CHECK(status IN ('complete', 'partial_children', 'failed')),
	action TEXT NOT NULL CHECK(action IN ('created', 'updated', 'none')),
	error TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sync_log_run ON sync_log(target, run_id);
CREATE INDEX IF NOT EXISTS idx_sync_log_key ON sync_log(target, record_key);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
