package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// DDL is kept portable across the sqlite and mysql drivers: `?` placeholders
// everywhere, timestamps assigned in Go, no vendor-specific upserts.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS inventory (
		agent_id   TEXT NOT NULL,
		item_type  TEXT NOT NULL,
		quantity   INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		updated_at TIMESTAMP,
		PRIMARY KEY (agent_id, item_type)
	)`,
	`CREATE TABLE IF NOT EXISTS journal (
		id             INTEGER PRIMARY KEY,
		agent_id       TEXT NOT NULL,
		period         TEXT NOT NULL,
		item_type      TEXT NOT NULL,
		quantity_delta INTEGER NOT NULL,
		external_ref   TEXT NOT NULL DEFAULT '',
		batch_id       TEXT NOT NULL,
		applied_at     TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_batch ON journal (agent_id, period)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_ref ON journal (agent_id, item_type, external_ref)`,
	`CREATE TABLE IF NOT EXISTS sim_registry (
		id         INTEGER PRIMARY KEY,
		gsm_number TEXT NOT NULL UNIQUE,
		carton_no  TEXT,
		box_no     TEXT,
		iccid      TEXT,
		sim_type   TEXT,
		location   TEXT NOT NULL DEFAULT 'Backoffice',
		status     TEXT NOT NULL DEFAULT 'in_stock',
		note       TEXT,
		added_at   TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS daily_regs (
		agent_id    TEXT NOT NULL,
		period      TEXT NOT NULL,
		reg_count   INTEGER NOT NULL DEFAULT 0,
		recorded_at TIMESTAMP,
		PRIMARY KEY (agent_id, period)
	)`,
}

// InitSchema creates all tables if missing. Safe to run at every startup.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
