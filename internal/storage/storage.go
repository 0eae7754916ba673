// FILE: internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write lost a race
	ErrConflict = errors.New("concurrent modification")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("duplicate record")
)

// Store handles SQL database operations for games, moves and users
type Store struct {
	db           *sql.DB
	driver       string
	path         string
	healthStatus atomic.Bool
}

// Open connects to the database identified by driver and dataSourceName
func Open(driver, dataSourceName string, devMode bool) (*Store, error) {
	switch driver {
	case "", "sqlite", DriverSQLite:
		driver = DriverSQLite
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// Enable WAL mode in development for better concurrency
		if devMode {
			if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
			}
		}

		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}

		// Single writer connection; transactions serialize on the pool
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to reach database: %w", err)
		}
	}

	s := NewWithDB(db, driver)
	s.path = dataSourceName
	return s, nil
}

// NewWithDB wraps an already opened handle
func NewWithDB(db *sql.DB, driver string) *Store {
	s := &Store{db: db, driver: driver}
	s.healthStatus.Store(true)
	return s
}

// Driver returns the SQL dialect in use
func (s *Store) Driver() string {
	return s.driver
}

// IsHealthy returns the current health status
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Ping checks connectivity and refreshes the health status
func (s *Store) Ping(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	s.healthStatus.Store(err == nil)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	schema := SchemaSQLite
	if s.driver == DriverPostgres {
		schema = SchemaPostgres
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// DeleteDB removes all data: the database file for SQLite, the tables for
// PostgreSQL. The store is closed afterwards.
func (s *Store) DeleteDB() error {
	if s.driver == DriverPostgres {
		if _, err := s.db.Exec(dropPostgres); err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
		return s.Close()
	}

	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	// ☣ DESTRUCTIVE: Removes database file
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	return nil
}

// rebind rewrites ? placeholders to the $n form PostgreSQL expects
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// beginTx starts a transaction and marks the store degraded when the
// database cannot hand out a connection
func (s *Store) beginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if ctx.Err() == nil {
			s.healthStatus.Store(false)
		}
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) commit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		s.healthStatus.Store(false)
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.healthStatus.Store(true)
	return nil
}

// isUniqueViolation reports whether err was raised by a unique constraint
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
