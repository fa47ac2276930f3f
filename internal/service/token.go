package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/msomdec/sena-auth/internal/domain"
)

const (
	DefaultTokenTTL    = time.Hour
	DefaultTokenIssuer = "sena-auth-service"
)

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTSigner implements domain.TokenSigner with HS256 JWTs.
type JWTSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTSigner creates a signer. An empty issuer or non-positive ttl falls
// back to the defaults.
func NewJWTSigner(secret, issuer string, ttl time.Duration) *JWTSigner {
	if issuer == "" {
		issuer = DefaultTokenIssuer
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTSigner{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL reports how long issued tokens stay valid.
func (s *JWTSigner) TTL() time.Duration { return s.ttl }

func (s *JWTSigner) Sign(payload domain.TokenPayload) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Username: payload.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(payload.UserID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature, issuer and expiry. Every failure is reported as
// domain.ErrUnauthorized.
func (s *JWTSigner) Verify(tokenString string) (domain.TokenPayload, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return domain.TokenPayload{}, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.TokenPayload{}, domain.ErrUnauthorized
	}

	return domain.TokenPayload{UserID: userID, Username: claims.Username}, nil
}
