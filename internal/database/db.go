package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Sentinel errors surfaced by the repositories.
var (
	// ErrDuplicateTrade marks an insert rejected by the (user, import_hash)
	// uniqueness constraint. Callers count it, they do not fail on it.
	ErrDuplicateTrade = errors.New("trade already imported")

	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")
)

// DB wraps the postgres connection pool
type DB struct {
	conn *sql.DB
}

// New creates a database connection
func New(connStr string) (*DB, error) {
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}
