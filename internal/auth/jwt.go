package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "office-booking"

var ErrInvalidToken = errors.New("invalid access token")

// Claims carries the user identity and the abilities granted at login.
type Claims struct {
	UserID string   `json:"sub"`
	Email  string   `json:"email"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 access tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
		now: time.Now,
	}
}

// GenerateAccessToken signs a token for userID limited to scopes.
func (m *JWTManager) GenerateAccessToken(userID, email string, scopes []string) (string, error) {
	issuedAt := m.now().UTC()

	claims := &Claims{
		UserID: userID,
		Email:  email,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token failed: %w", err)
	}
	return signed, nil
}

// ParseAndValidate verifies signature, issuer and expiry.
// Every failure wraps ErrInvalidToken.
func (m *JWTManager) ParseAndValidate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
