// Package auth issues and validates the bearer tokens the HTTP layer uses.
// Tokens are HS256 JWTs carrying the user's email as subject and the role
// as a custom claim.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"beanstand/internal/errs"
	"beanstand/internal/model"
)

const TokenTTL = 30 * time.Minute

// Claims extends the registered JWT claims with the user's role.
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

// TokenManager signs and validates access tokens with a shared HMAC secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret []byte) *TokenManager {
	return &TokenManager{secret: secret, ttl: TokenTTL}
}

// Generate signs a token for u, valid for the manager's TTL.
func (tm *TokenManager) Generate(u model.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
		Role: u.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", errs.Transport(err, "sign token")
	}
	return signed, nil
}

// Validate parses a bearer token and returns its claims. Expired or
// tampered tokens come back as authorization errors.
func (tm *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, errs.Authorization("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errs.Authorization("invalid token")
	}
	return claims, nil
}

// HashPassword returns a bcrypt hash for storage.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", errs.Transport(err, "hash password")
	}
	return string(b), nil
}

// CheckPassword compares a login attempt against the stored hash.
func CheckPassword(hashed, plain string) error {
	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) != nil {
		return errs.Authorization("wrong email or password")
	}
	return nil
}
