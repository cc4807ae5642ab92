package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrMissingToken   = errors.New("missing authorization token")
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Token kinds. The kind is baked into the claims so a leaked refresh
// token cannot be replayed against the API, and an access token cannot
// mint fresh pairs at the refresh endpoint.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims binds a token to a player account.
type Claims struct {
	PlayerID string `json:"player_id"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a JWTManager with the given secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  15 * time.Minute,
		refreshExpiry: 7 * 24 * time.Hour,
	}
}

func (m *JWTManager) sign(playerID, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		PlayerID: playerID,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   playerID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GenerateAccessToken creates a short-lived access token for the player.
func (m *JWTManager) GenerateAccessToken(playerID string) (string, error) {
	return m.sign(playerID, TokenAccess, m.accessExpiry)
}

// GenerateRefreshToken creates a long-lived refresh token.
func (m *JWTManager) GenerateRefreshToken(playerID string) (string, error) {
	return m.sign(playerID, TokenRefresh, m.refreshExpiry)
}

func (m *JWTManager) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken parses a token and requires the access kind.
func (m *JWTManager) ValidateAccessToken(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenAccess {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}

// ValidateRefreshToken parses a token and requires the refresh kind.
func (m *JWTManager) ValidateRefreshToken(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenRefresh {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}

// TokenPair holds an access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

// GenerateTokenPair creates both tokens for a player.
func (m *JWTManager) GenerateTokenPair(playerID string) (*TokenPair, error) {
	access, err := m.GenerateAccessToken(playerID)
	if err != nil {
		return nil, err
	}
	refresh, err := m.GenerateRefreshToken(playerID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(m.accessExpiry.Seconds()),
	}, nil
}
