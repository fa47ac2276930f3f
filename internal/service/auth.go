package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/msomdec/sena-auth/internal/domain"
)

// AuthService handles user registration, login, and token issuance.
// It keeps no state between calls and is safe for concurrent use.
type AuthService struct {
	users  domain.UserRepository
	hasher PasswordHasher
	signer domain.TokenSigner

	// decoyHash is compared against when a username is unknown so that a
	// missing user costs the same as a wrong password.
	decoyHash func() string
}

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	User        domain.Profile
	Payload     domain.TokenPayload
	AccessToken string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, hasher PasswordHasher, signer domain.TokenSigner) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		signer: signer,
		decoyHash: sync.OnceValue(func() string {
			hash, err := hasher.Hash("decoy-password-for-unknown-users")
			if err != nil {
				return ""
			}
			return hash
		}),
	}
}

// Register creates a new user. Input length limits are checked by the
// caller; see domain.Credentials.
func (s *AuthService) Register(ctx context.Context, username, password string) (domain.Profile, error) {
	// Fast path only. The store's unique constraint is what actually
	// guards against a concurrent registration of the same name.
	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return domain.Profile{}, domain.ErrUserAlreadyExists
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Profile{}, unavailable(ctx, "lookup user", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("register: %w", err)
	}

	user := &domain.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return domain.Profile{}, domain.ErrUserAlreadyExists
		}
		return domain.Profile{}, unavailable(ctx, "create user", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user.Profile(), nil
}

// Login verifies credentials and returns the user with a signed token.
// Unknown usernames and wrong passwords both yield
// domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = s.hasher.Compare(s.decoyHash(), password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, unavailable(ctx, "lookup user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			slog.WarnContext(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		}
		return nil, domain.ErrInvalidCredentials
	}

	payload := domain.TokenPayload{UserID: user.ID, Username: user.Username}
	token, err := s.signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{
		User:        user.Profile(),
		Payload:     payload,
		AccessToken: token,
	}, nil
}

// ListUsers returns every user in store order, without password hashes.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.Profile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, unavailable(ctx, "list users", err)
	}

	profiles := make([]domain.Profile, len(users))
	for i := range users {
		profiles[i] = users[i].Profile()
	}
	return profiles, nil
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Profile, error) {
	payload, err := s.signer.Verify(token)
	if err != nil {
		return domain.Profile{}, domain.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Profile{}, domain.ErrUnauthorized
		}
		return domain.Profile{}, unavailable(ctx, "lookup user", err)
	}
	if user.Username != payload.Username {
		return domain.Profile{}, domain.ErrUnauthorized
	}

	return user.Profile(), nil
}

// unavailable logs the store error and returns a classification that
// carries none of the driver's text.
func unavailable(ctx context.Context, op string, err error) error {
	slog.ErrorContext(ctx, "credential store error", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
}
