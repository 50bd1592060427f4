// Package tokenstore is the sole authority on token persistence and validity.
// It never talks to the network: a token's validity is decided from its own
// embedded expiry claim.
package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/johnpapajani/rezi-web-sub002/internal/model"
)

// Storage keys. The three entries live and die together: they are written
// through a single atomic multi-set and removed through a single multi-delete.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyUser         = "user"
)

// Backend is durable key-value storage for session material. Writes must be
// atomic as perceived by readers: no reader may observe only part of a
// SetAll or DeleteAll.
type Backend interface {
	// Get returns the stored value or errs.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// SetAll stores every entry atomically.
	SetAll(ctx context.Context, entries map[string]string) error
	// DeleteAll removes the given keys atomically. Missing keys are not an error.
	DeleteAll(ctx context.Context, keys ...string) error
}

// Store persists the token pair and the cached profile snapshot.
type Store struct {
	backend Backend
	now     func() time.Time
}

// New constructs a Store over the given backend.
func New(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// AccessToken returns the raw stored access token, if any.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	return s.get(ctx, keyAccessToken)
}

// RefreshToken returns the raw stored refresh token, if any.
func (s *Store) RefreshToken(ctx context.Context) (string, bool) {
	return s.get(ctx, keyRefreshToken)
}

// AccessTokenValid reports whether a stored access token exists and its
// embedded expiry has not passed. No clock-skew grace is applied.
func (s *Store) AccessTokenValid(ctx context.Context) bool {
	tok, ok := s.get(ctx, keyAccessToken)
	return ok && tokenValid(tok, s.now())
}

// RefreshTokenValid reports whether a stored refresh token exists and its
// embedded expiry has not passed.
func (s *Store) RefreshTokenValid(ctx context.Context) bool {
	tok, ok := s.get(ctx, keyRefreshToken)
	return ok && tokenValid(tok, s.now())
}

// SetTokens replaces both tokens atomically. The previous pair is never
// observable alongside the new one.
func (s *Store) SetTokens(ctx context.Context, pair model.TokenPair) error {
	return s.backend.SetAll(ctx, map[string]string{
		keyAccessToken:  pair.AccessToken,
		keyRefreshToken: pair.RefreshToken,
	})
}

// SetSession replaces both tokens and the profile snapshot in one atomic write.
func (s *Store) SetSession(ctx context.Context, pair model.TokenPair, u *model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.backend.SetAll(ctx, map[string]string{
		keyAccessToken:  pair.AccessToken,
		keyRefreshToken: pair.RefreshToken,
		keyUser:         string(raw),
	})
}

// User returns the cached profile snapshot, if one is stored and decodable.
func (s *Store) User(ctx context.Context) (*model.User, bool) {
	raw, ok := s.get(ctx, keyUser)
	if !ok {
		return nil, false
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, false
	}
	return &u, true
}

// SetUser replaces the profile snapshot in full.
func (s *Store) SetUser(ctx context.Context, u *model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.backend.SetAll(ctx, map[string]string{keyUser: string(raw)})
}

// Clear removes access token, refresh token and cached user together.
// Clearing an already-empty store is a no-op, so Clear is idempotent.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.DeleteAll(ctx, keyAccessToken, keyRefreshToken, keyUser)
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, err := s.backend.Get(ctx, key)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

// tokenValid decodes the token's exp claim without verifying the signature
// (verification is the server's job). Tokens that do not parse as a JWT or
// carry no expiry are treated as invalid.
func tokenValid(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return now.Before(claims.ExpiresAt.Time)
}
