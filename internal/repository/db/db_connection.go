package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// InitDB opens/creates the local SQLite file and ensures the schema exists.
func InitDB(path string) (*sql.DB, error) {
	handle, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite tolerates a single writer poorly; keep the pool tiny.
	handle.SetMaxOpenConns(1)
	handle.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := handle.Exec(pragma); err != nil {
			_ = handle.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(handle); err != nil {
		_ = handle.Close()
		return nil, err
	}

	if err := handle.Ping(); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return handle, nil
}

const schemaTelemetryLog = `
CREATE TABLE IF NOT EXISTS telemetry_log (
    id TEXT PRIMARY KEY,
    device_uid TEXT NOT NULL,
    logged_at TIMESTAMP NOT NULL,
    source TEXT NOT NULL,
    temperature REAL,
    air_humidity REAL,
    soil_moisture REAL,
    pump_state TEXT,
    control_mode TEXT
);
`

const schemaTelemetryIndex = `
CREATE INDEX IF NOT EXISTS idx_telemetry_device_time
    ON telemetry_log (device_uid, logged_at);
`

const schemaOperators = `
CREATE TABLE IF NOT EXISTS operators (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(handle *sql.DB) error {
	tx, err := handle.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaTelemetryLog,
		schemaTelemetryIndex,
		schemaOperators,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
