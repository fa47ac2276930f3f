// Package postgres is the PostgreSQL credential store, using pgx through
// database/sql and goose for schema migrations.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/msomdec/sena-auth/internal/domain"
	"github.com/msomdec/sena-auth/internal/repository/postgres/migrations"
)

// DB wraps a PostgreSQL connection pool and implements domain.Database.
type DB struct {
	SqlDB *sql.DB
	users *UserRepository
}

// New opens a pool for dsn and verifies it with a ping.
func New(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{SqlDB: sqlDB}
	db.users = NewUserRepository(db)
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate runs the embedded goose migrations.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db.SqlDB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
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

	if _, err := tx.ExecContext(ctx, "INSERT INTO health_probes (probed_at) VALUES (now())"); err != nil {
		return fmt.Errorf("probe insert: %w", err)
	}
	return nil
}

func (db *DB) Users() domain.UserRepository { return db.users }

func (db *DB) Driver() string { return "postgres" }

func (db *DB) Close() error {
	return db.SqlDB.Close()
}
