package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wolfman30/telehealth-platform/internal/apperrors"
)

var (
	// ErrInvalidToken is returned for missing, malformed or badly signed tokens.
	ErrInvalidToken = apperrors.Unauthorized("Missing or invalid token. Please log in again.")

	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = apperrors.Unauthorized("Token has expired. Please log in again.")

	ErrMissingToken = apperrors.Unauthorized("Missing token")
)

// Issuer mints and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates a token issuer. A zero ttl defaults to 24 hours.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for identity.
func (i *Issuer) Issue(identity Identity) (string, error) {
	if len(i.secret) == 0 {
		return "", fmt.Errorf("auth: issue token: signing secret not configured")
	}
	now := i.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   identity.Subject(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("auth: issue token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the identity it names.
func (i *Issuer) Verify(tokenString string) (Identity, error) {
	if tokenString == "" || len(i.secret) == 0 {
		return Identity{}, ErrInvalidToken
	}
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrInvalidToken
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	return ParseSubject(claims.Subject)
}

// Resolve maps an optional bearer token to a patient user key. Doctor tokens
// and invalid tokens resolve to no user.
func (i *Issuer) Resolve(tokenString string) (string, bool) {
	identity, err := i.Verify(tokenString)
	if err != nil || !identity.IsUser() {
		return "", false
	}
	return identity.UserKey(), true
}
