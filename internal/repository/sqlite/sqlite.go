package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/msomdec/sena-auth/internal/domain"
	"github.com/msomdec/sena-auth/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection and implements domain.Database.
type DB struct {
	SqlDB *sql.DB
	users *UserRepository
}

// dsn adds the driver's time format parameter to path, which may already
// carry a query string.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_time_format=sqlite"
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys. Timestamps are written in SQLite's
// own text format so created_at compares correctly in range queries.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := sqlDB.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := sqlDB.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// SQLite serializes writers anyway; one connection keeps PRAGMAs in effect.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{SqlDB: sqlDB}
	db.users = NewUserRepository(db)
	return db, nil
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, db.SqlDB)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.SqlDB.PingContext(ctx)
}

// ProbeWrite inserts a row into health_probes inside a transaction and
// rolls it back.
func (db *DB) ProbeWrite(ctx context.Context) error {
	tx, err := db.SqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin probe transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT INTO health_probes (probed_at) VALUES (CURRENT_TIMESTAMP)"); err != nil {
		return fmt.Errorf("probe insert: %w", err)
	}
	return nil
}

// Users returns the user repository bound to this database.
func (db *DB) Users() domain.UserRepository {
	return db.users
}

func (db *DB) Driver() string { return "sqlite" }

func (db *DB) Close() error {
	return db.SqlDB.Close()
}
