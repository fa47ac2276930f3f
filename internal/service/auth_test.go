package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/sena-auth/internal/domain"
	"github.com/msomdec/sena-auth/internal/repository/memory"
	"github.com/msomdec/sena-auth/internal/repository/sqlite"
	"github.com/msomdec/sena-auth/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Use cost 4 for fast tests.
	auth := service.NewAuthService(db.Users(), service.NewBcryptHasher(4), service.NewJWTSigner(testJWTSecret, "", 0))
	return auth, db
}

// assertSameProfile compares CreatedAt by instant; a time read back from
// the store has a different location and monotonic reading.
func assertSameProfile(t *testing.T, want, got domain.Profile) {
	t.Helper()
	if got.ID != want.ID || got.Username != want.Username || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("expected profile %+v, got %+v", want, got)
	}
}

func TestAuthService_RegisterLoginScenario(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "testuser123", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected user ID to be set")
	}
	if user.Username != "testuser123" {
		t.Fatalf("expected username testuser123, got %s", user.Username)
	}

	result, err := auth.Login(ctx, "testuser123", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected non-empty access token")
	}
	if result.Payload.Username != "testuser123" || result.Payload.UserID != user.ID {
		t.Fatalf("unexpected payload %+v", result.Payload)
	}
	assertSameProfile(t, user, result.User)

	if _, err := auth.Login(ctx, "testuser123", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := auth.Register(ctx, "testuser123", "password123"); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestAuthService_Register_DuplicateWithDifferentPassword(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "dup", "password123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := auth.Register(ctx, "dup", "another-password"); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}

	count, err := db.Users().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one stored user, got %d", count)
	}
}

func TestAuthService_Register_StoresHashNotPassword(t *testing.T) {
	auth, db := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "hashed", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	stored, err := db.Users().GetByUsername(ctx, "hashed")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if stored.PasswordHash == "" || strings.Contains(stored.PasswordHash, "password123") {
		t.Fatalf("expected a bcrypt hash, got %q", stored.PasswordHash)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$2a$04$") {
		t.Fatalf("expected cost-4 bcrypt hash, got %q", stored.PasswordHash)
	}
}

func TestAuthService_MultibytePasswordRoundTrip(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	for i, password := range []string{
		strings.Repeat("ñ", 40),
		strings.Repeat("€", 50),
		strings.Repeat("ñ", 36) + "abc",
	} {
		creds := domain.Credentials{Username: fmt.Sprintf("multibyte%d", i), Password: password}
		if err := creds.ValidateRegistration(); err != nil {
			t.Fatalf("ValidateRegistration(%q): %v", password, err)
		}
		if _, err := auth.Register(ctx, creds.Username, creds.Password); err != nil {
			t.Fatalf("Register(%q): %v", password, err)
		}
		if _, err := auth.Login(ctx, creds.Username, creds.Password); err != nil {
			t.Fatalf("Login(%q): %v", password, err)
		}
	}
}

func TestAuthService_Login_UnknownAndWrongAreIndistinguishable(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "known", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, errWrong := auth.Login(ctx, "known", "wrongpassword")
	_, errUnknown := auth.Login(ctx, "nobody", "password123")

	if !errors.Is(errWrong, domain.ErrInvalidCredentials) || !errors.Is(errUnknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", errWrong, errUnknown)
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Fatalf("errors differ: %q vs %q", errWrong, errUnknown)
	}
}

func TestAuthService_Login_IsCaseSensitive(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "CaseUser", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := auth.Login(ctx, "caseuser", "password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_ListUsers(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	users, err := auth.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers empty: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}

	for _, name := range []string{"alpha", "bravo", "charlie"} {
		if _, err := auth.Register(ctx, name, "password123"); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}

	users, err = auth.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 || users[0].Username != "alpha" || users[2].Username != "charlie" {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "bearer", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	result, err := auth.Login(ctx, "bearer", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, err := auth.Authenticate(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	assertSameProfile(t, user, got)

	if _, err := auth.Authenticate(ctx, "not-a-valid-jwt"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_Authenticate_TokenForMissingUser(t *testing.T) {
	auth, _ := newTestAuthService(t)
	signer := service.NewJWTSigner(testJWTSecret, "", 0)

	token, err := signer.Sign(domain.TokenPayload{UserID: 4242, Username: "ghost"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := auth.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_ConcurrentRegistrationOfSameUsername(t *testing.T) {
	repo := memory.NewUserRepository()
	auth := service.NewAuthService(repo, service.NewBcryptHasher(4), service.NewJWTSigner(testJWTSecret, "", 0))
	ctx := context.Background()

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := auth.Register(ctx, "contended", "password123")
			if err != nil && !errors.Is(err, domain.ErrUserAlreadyExists) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful registration, got %d", successes)
	}
}

// racingRepo reports the username as free on lookup but the insert still
// hits the unique constraint, as when another request wins the race.
type racingRepo struct {
	*memory.UserRepository
}

func (r racingRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func TestAuthService_Register_InsertConstraintIsAuthoritative(t *testing.T) {
	repo := racingRepo{memory.NewUserRepository()}
	auth := service.NewAuthService(repo, service.NewBcryptHasher(4), service.NewJWTSigner(testJWTSecret, "", 0))
	ctx := context.Background()

	if _, err := auth.Register(ctx, "raced", "password123"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := auth.Register(ctx, "raced", "password123"); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists from insert, got %v", err)
	}
}

// brokenRepo fails every call with a driver-style message.
type brokenRepo struct{}

var errDriver = errors.New("dial tcp 10.0.0.7:5432: connection refused (pq secret detail)")

func (brokenRepo) Create(context.Context, *domain.User) error { return errDriver }
func (brokenRepo) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, errDriver
}
func (brokenRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, errDriver
}
func (brokenRepo) List(context.Context) ([]domain.User, error)        { return nil, errDriver }
func (brokenRepo) Count(context.Context) (int, error)                 { return 0, errDriver }
func (brokenRepo) CountSince(context.Context, time.Time) (int, error) { return 0, errDriver }
func (brokenRepo) MostRecent(context.Context) (*domain.User, error)   { return nil, errDriver }

func TestAuthService_StoreFailuresAreGeneric(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	auth := service.NewAuthService(brokenRepo{}, service.NewBcryptHasher(4), service.NewJWTSigner(testJWTSecret, "", 0))
	ctx := context.Background()

	_, errRegister := auth.Register(ctx, "someone", "s3cret-password")
	_, errLogin := auth.Login(ctx, "someone", "s3cret-password")
	_, errList := auth.ListUsers(ctx)

	for name, err := range map[string]error{"register": errRegister, "login": errLogin, "list": errList} {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Fatalf("%s: expected ErrStoreUnavailable, got %v", name, err)
		}
		if errors.Is(err, errDriver) || strings.Contains(err.Error(), "connection refused") {
			t.Fatalf("%s: driver detail leaked: %v", name, err)
		}
	}

	if strings.Contains(logs.String(), "s3cret-password") {
		t.Fatal("plaintext password appeared in logs")
	}
}
