package auth

import (
	"chatpat/internal/config"
	"chatpat/internal/repository/db"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for missing, expired, malformed or forged tokens
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the verified identity. Subject is the user id.
type Claims struct {
	Email           string `json:"email,omitempty"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens
type TokenManager struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewTokenManager creates a TokenManager from auth configuration
func NewTokenManager(authConfig config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:     authConfig.JWTSecret,
		expiration: authConfig.TokenExpiration,
		now:        time.Now,
	}
}

// Expiration returns the lifetime of issued tokens
func (m *TokenManager) Expiration() time.Duration {
	return m.expiration
}

// GenerateToken signs a token for user
func (m *TokenManager) GenerateToken(user *db.User) (string, error) {
	now := m.now()
	claims := Claims{
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		ProfileImageURL: user.ProfileImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string
func (m *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
