package db

import (
	"database/sql"
	"fmt"

	// Import the libSQL driver — registers "libsql" with database/sql.
	// Handles remote URLs (libsql://, https://, wss://).
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	// Import the pure-Go SQLite driver for local file: URLs.
	// libsql-client-go delegates file: URLs to this driver.
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver to use. Package-level so tests can
// point at the plain sqlite driver; production always uses "libsql".
var driverName = "libsql"

// Connect opens the trip database and verifies it with a ping. Foreign keys
// are switched on explicitly: SQLite ships with them off, and the checklist
// schema relies on them.
//
// Supported URL schemes:
//
//	Local file:   "file:trips.db"
//	Remote Turso: "libsql://[db-name].turso.io?authToken=[token]"
func Connect(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	conn, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Single connection: SQLite allows one writer, and the pragma below is
	// per-connection state that would not survive pool churn.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return conn, nil
}
