// Package duckdb persists evaluation runs and caches parsed callsets.
// Results are append-only tables keyed by a run ID; cached callsets are
// keyed by file fingerprint and load options.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for results and cached callsets.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			mode VARCHAR,
			inputs VARCHAR,
			params VARCHAR,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			run_id VARCHAR,
			tool VARCHAR,
			svtype VARCHAR,
			tp BIGINT,
			fp BIGINT,
			fn BIGINT,
			precision_rate DOUBLE,
			recall_rate DOUBLE,
			f1_score DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS concordance (
			run_id VARCHAR,
			callset VARCHAR,
			svtype VARCHAR,
			total BIGINT,
			confirmed BIGINT,
			unconfirmed BIGINT,
			rate DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS discordant (
			run_id VARCHAR,
			tool VARCHAR,
			kind VARCHAR,
			chrom VARCHAR,
			pos BIGINT,
			end_pos BIGINT,
			length BIGINT,
			svtype VARCHAR,
			partner_chrom VARCHAR,
			zygosity VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS callset_files (
			path VARCHAR,
			options VARCHAR,
			size BIGINT,
			mod_time VARCHAR,
			records BIGINT,
			PRIMARY KEY (path, options)
		)`,
		`CREATE TABLE IF NOT EXISTS callset_records (
			path VARCHAR,
			options VARCHAR,
			seq BIGINT,
			chrom VARCHAR,
			pos BIGINT,
			end_pos BIGINT,
			length BIGINT,
			svtype VARCHAR,
			partner_chrom VARCHAR,
			zygosity VARCHAR
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
