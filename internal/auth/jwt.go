// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package auth

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/animebell/internal/config"
)

// UserID is the "id" claim. Issuers put either a number or a string there;
// both normalize to the same decimal or opaque string so 42 and "42" land in
// the same room.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id claim must be a string or integer: %w", err)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("id claim must be an integer, got %s", n)
	}
	*u = UserID(n.String())
	return nil
}

// Claims are the token claims this service reads.
type Claims struct {
	ID       UserID `json:"id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the id claim, falling back to sub.
func (c *Claims) UserID() string {
	if c.ID != "" {
		return string(c.ID)
	}
	return c.Subject
}

// TokenVerifier turns a raw credential into a user id.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// JWTManager signs and verifies HS256 tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager fails when the secret is empty.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(cfg.JWTSecret), ttl: ttl, now: time.Now}, nil
}

// GenerateToken mints a token for userID. The real issuer lives in the main
// application; this exists for tests and the bell dev CLI.
func (m *JWTManager) GenerateToken(userID, username string) (string, error) {
	return m.generate(userID, username, m.ttl)
}

func (m *JWTManager) generate(userID, username string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		ID:       UserID(userID),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, algorithm and time claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// Verify implements TokenVerifier. Every failure wraps ErrInvalidCredential.
func (m *JWTManager) Verify(tokenString string) (string, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return "", errors.Join(ErrInvalidCredential, err)
	}
	id := claims.UserID()
	if id == "" {
		return "", fmt.Errorf("%w: token has no user id", ErrInvalidCredential)
	}
	return id, nil
}
