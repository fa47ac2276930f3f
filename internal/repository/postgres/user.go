package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/msomdec/sena-auth/internal/domain"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// UserRepository implements domain.UserRepository using PostgreSQL.
type UserRepository struct {
	db *sql.DB

	// createMu keeps created_at ordered the same way as ids for inserts
	// from this process.
	createMu sync.Mutex
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

const userColumns = `id, username, password_hash, created_at`

// Create inserts user. created_at never goes below the newest existing
// row, so it stays ordered with ids even if the wall clock steps back.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, created_at)
		 VALUES ($1, $2, GREATEST($3::timestamptz, (SELECT MAX(created_at) FROM users)))
		 RETURNING id, created_at`,
		user.Username, user.PasswordHash, time.Now().UTC(),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "query user by id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "query user by username",
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) MostRecent(ctx context.Context) (*domain.User, error) {
	return r.getOne(ctx, "query most recent user",
		`SELECT `+userColumns+` FROM users ORDER BY id DESC LIMIT 1`)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, args ...any) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE created_at >= $1`, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users since: %w", err)
	}
	return count, nil
}
