package sqlstore

import (
	"chatpat/internal/config"
	"chatpat/internal/logger"
	"chatpat/internal/repository/db"
	"chatpat/migrations"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	sqlite "github.com/mattn/go-sqlite3"
)

// Ensure Store implements db.Database interface
var _ db.Database = (*Store)(nil)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite3"
)

// Store implements db.Database over database/sql. The same queries run
// against PostgreSQL (lib/pq) and SQLite (go-sqlite3).
type Store struct {
	conn    *sql.DB
	dialect string

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// OpenPostgres connects to PostgreSQL and applies the embedded migrations
func OpenPostgres(ctx context.Context, dbConfig config.DatabaseConfig) (*Store, error) {
	logger.Log.WithField("host", dbConfig.Host).Info("Connecting to PostgreSQL")
	return open(ctx, dialectPostgres, dbConfig.GetDSN())
}

// OpenSQLite opens (or creates) the SQLite database at path and applies the embedded migrations
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	logger.Log.WithField("path", path).Info("Opening SQLite database")
	return open(ctx, dialectSQLite, path+"?_foreign_keys=on&_busy_timeout=5000")
}

func open(ctx context.Context, dialect, dsn string) (*Store, error) {
	conn, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if dialect == dialectSQLite {
		// A single writer avoids SQLITE_BUSY between pooled connections.
		conn.SetMaxOpenConns(1)
	}

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	s := &Store{conn: conn, dialect: dialect, now: time.Now}

	if err = s.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	logger.Log.WithField("dialect", dialect).Info("Database ready")
	return s, nil
}

// runMigrations applies the embedded migrations for the store's dialect
func (s *Store) runMigrations() error {
	var (
		driver database.Driver
		dir    string
		err    error
	)
	switch s.dialect {
	case dialectPostgres:
		driver, err = postgres.WithInstance(s.conn, &postgres.Config{})
		dir = migrations.PostgresDir
	case dialectSQLite:
		driver, err = sqlite3.WithInstance(s.conn, &sqlite3.Config{})
		dir = migrations.SQLiteDir
	default:
		return fmt.Errorf("unsupported dialect %q", s.dialect)
	}
	if err != nil {
		return fmt.Errorf("error creating migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, dir)
	if err != nil {
		return fmt.Errorf("error opening migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, s.dialect, driver)
	if err != nil {
		return fmt.Errorf("error creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}
	// The sqlite3 migrate driver closes the shared *sql.DB on Close.
	if s.dialect == dialectPostgres {
		m.Close()
	}

	logger.Log.Info("Database migrations applied successfully")
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// timestamp returns a strictly increasing UTC time at microsecond precision,
// so rows written back to back keep their insertion order.
func (s *Store) timestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite.ErrConstraintPrimaryKey
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
