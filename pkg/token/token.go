// Package token issues and verifies the HMAC-signed JWTs used for bearer
// access, refresh sessions and password-reset links.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
	TypeReset   = "reset"
)

var (
	// ErrInvalidToken is returned for malformed, mis-signed or mistyped tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Config holds signing material and lifetimes.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// Claims are the custom claims carried by every token kind.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager handles JWT token operations.
type Manager struct {
	cfg Config
	now func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the issuing clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager, filling zero lifetimes with defaults.
func NewManager(cfg Config, opts ...Option) *Manager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 5 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 72 * time.Hour
	}
	m := &Manager{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AccessTTL reports the access token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// RefreshTTL reports the refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// IssueAccess signs a short-lived bearer token.
func (m *Manager) IssueAccess(userID int64, email string) (string, error) {
	claims := m.claims(userID, email, TypeAccess, m.cfg.AccessTTL)
	return m.sign(claims, m.signingKey())
}

// IssueRefresh signs a refresh token bound to sessionID through its jti.
func (m *Manager) IssueRefresh(userID int64, email, sessionID string) (string, time.Time, error) {
	claims := m.claims(userID, email, TypeRefresh, m.cfg.RefreshTTL)
	claims.ID = sessionID
	signed, err := m.sign(claims, m.signingKey())
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// IssueReset signs a password-reset token. The key mixes in the user's
// current password hash, so the token dies as soon as the password changes.
func (m *Manager) IssueReset(userID int64, passwordHash string) (string, error) {
	claims := m.claims(userID, "", TypeReset, m.cfg.ResetTTL)
	return m.sign(claims, m.resetKey(passwordHash))
}

// ParseAccess verifies an access token without touching storage.
func (m *Manager) ParseAccess(raw string) (*Claims, error) {
	return m.parse(raw, TypeAccess, m.signingKey())
}

// ParseRefresh verifies a refresh token; the caller still checks the session.
func (m *Manager) ParseRefresh(raw string) (*Claims, error) {
	claims, err := m.parse(raw, TypeRefresh, m.signingKey())
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyReset checks that raw was issued for userID while the password hash
// was passwordHash.
func (m *Manager) VerifyReset(raw string, userID int64, passwordHash string) error {
	claims, err := m.parse(raw, TypeReset, m.resetKey(passwordHash))
	if err != nil {
		return err
	}
	if claims.UserID != userID || claims.Subject != strconv.FormatInt(userID, 10) {
		return ErrInvalidToken
	}
	return nil
}

func (m *Manager) claims(userID int64, email, tokenType string, ttl time.Duration) *Claims {
	now := m.now()
	return &Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
}

func (m *Manager) sign(claims *Claims, key []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (m *Manager) parse(raw, tokenType string, key []byte) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || !claims.VerifyIssuer(m.cfg.Issuer, m.cfg.Issuer != "") {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) signingKey() []byte {
	return []byte(m.cfg.Secret)
}

func (m *Manager) resetKey(passwordHash string) []byte {
	return []byte(m.cfg.Secret + "|reset|" + passwordHash)
}
