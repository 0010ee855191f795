package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthManager mints and verifies the HS256 bearer tokens that protect the
// command/query API. The webhook endpoint does not use it; the acquirer
// authenticates with the shared webhook secret instead.
type AuthManager struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthManager(secret string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{secret: []byte(secret), ttl: ttl}
}

type APIClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint issues a token for a caller service, e.g. the order-management facade.
func (a *AuthManager) Mint(subject string) (string, error) {
	now := time.Now()
	claims := APIClaims{
		Role: "service",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseFromRequest extracts and verifies the bearer token.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*APIClaims, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return nil, errors.New("missing token")
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*APIClaims, error) {
	claims := &APIClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
