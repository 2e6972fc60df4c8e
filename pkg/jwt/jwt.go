// Package jwt issues and validates RS256 session tokens.
package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Config configures a Manager.
type Config struct {
	// PrivateKeyPath points to a PEM encoded RSA key (PKCS#1 or PKCS#8).
	// When empty a key is generated at startup and tokens do not survive
	// a restart.
	PrivateKeyPath  string        `mapstructure:"private_key_path"`
	AccessDuration  time.Duration `mapstructure:"access_duration"`
	RefreshDuration time.Duration `mapstructure:"refresh_duration"`
	Issuer          string        `mapstructure:"issuer"`
}

// Claims are the claims carried by every token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Type     string `json:"type"`
}

// Identity is the subject a token is issued for.
type Identity struct {
	UserID   string
	Email    string
	Username string
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

// Manager handles token operations.
type Manager struct {
	privateKey      *rsa.PrivateKey
	accessDuration  time.Duration
	refreshDuration time.Duration
	issuer          string
	now             func() time.Time

	mu sync.RWMutex
	// revokedBefore holds, per user, the instant before which all issued
	// tokens are rejected.
	revokedBefore map[string]time.Time
}

// NewManager creates a Manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	key, err := loadOrGenerateKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	return NewManagerWithKey(key, cfg), nil
}

// NewManagerWithKey creates a Manager that signs with key.
func NewManagerWithKey(key *rsa.PrivateKey, cfg Config) *Manager {
	if cfg.AccessDuration <= 0 {
		cfg.AccessDuration = time.Hour
	}
	if cfg.RefreshDuration <= 0 {
		cfg.RefreshDuration = 7 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "cinema-chronicles"
	}
	return &Manager{
		privateKey:      key,
		accessDuration:  cfg.AccessDuration,
		refreshDuration: cfg.RefreshDuration,
		issuer:          cfg.Issuer,
		now:             time.Now,
		revokedBefore:   make(map[string]time.Time),
	}
}

// Issue creates an access and a refresh token for id.
func (m *Manager) Issue(id Identity) (TokenPair, error) {
	now := m.now()

	access, err := m.sign(id, TypeAccess, now, m.accessDuration)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(Identity{UserID: id.UserID}, TypeRefresh, now, m.refreshDuration)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(m.accessDuration).Unix(),
		RefreshExpiresAt: now.Add(m.refreshDuration).Unix(),
	}, nil
}

// Validate parses tokenString and returns its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return &m.privateKey.PublicKey, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(m.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if m.isRevoked(claims) {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// ValidateAccess validates tokenString and requires it to be an access token.
func (m *Manager) ValidateAccess(tokenString string) (*Claims, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh exchanges a refresh token for a new pair. The caller supplies the
// current identity so renamed users get fresh claims.
func (m *Manager) Refresh(refreshToken string, lookup func(userID string) (Identity, error)) (TokenPair, error) {
	claims, err := m.Validate(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.Type != TypeRefresh {
		return TokenPair{}, ErrInvalidToken
	}
	id, err := lookup(claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	return m.Issue(id)
}

// Revoke invalidates every token issued to userID up to now.
func (m *Manager) Revoke(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokedBefore[userID] = m.now()
}

// PruneRevocations forgets revocations older than the refresh lifetime,
// since every token they could reject has expired anyway.
func (m *Manager) PruneRevocations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.refreshDuration)
	n := 0
	for userID, at := range m.revokedBefore {
		if at.Before(cutoff) {
			delete(m.revokedBefore, userID)
			n++
		}
	}
	return n
}

func (m *Manager) isRevoked(c *Claims) bool {
	m.mu.RLock()
	at, ok := m.revokedBefore[c.UserID]
	m.mu.RUnlock()
	if !ok || c.IssuedAt == nil {
		return ok
	}
	return !c.IssuedAt.Time.After(at)
}

func (m *Manager) sign(id Identity, typ string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   id.UserID,
		Email:    id.Email,
		Username: id.Username,
		Type:     typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.privateKey)
}

func loadOrGenerateKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		return rsa.GenerateKey(rand.Reader, 2048)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// EncodePrivateKey returns key as a PKCS#1 PEM block.
func EncodePrivateKey(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}
