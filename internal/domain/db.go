package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Postgres, in-memory) owns its own migration
// files and strategy, ensuring the entire backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
	// ProbeWrite performs a write that leaves no trace, proving the store
	// accepts writes.
	ProbeWrite(ctx context.Context) error
	Users() UserRepository
	Driver() string
	Close() error
}
