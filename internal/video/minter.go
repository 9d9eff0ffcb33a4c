package video

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the participant's capability in a call.
type Role int

const (
	RolePublisher  Role = 1
	RoleSubscriber Role = 2
)

// Grant describes a single join token.
type Grant struct {
	Channel   string
	UID       string
	Role      Role
	ExpiresAt time.Time
}

// TokenMinter mints time-boxed join tokens for a video provider.
type TokenMinter interface {
	Mint(ctx context.Context, grant Grant) (string, error)
}

var errIncompleteGrant = errors.New("video: grant requires channel, uid and expiry")

type joinClaims struct {
	AppID   string `json:"app_id"`
	Channel string `json:"channel"`
	UID     string `json:"uid"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}

// JWTMinter signs join tokens with the provider app certificate.
type JWTMinter struct {
	appID       string
	certificate []byte
	now         func() time.Time
}

func NewJWTMinter(appID, certificate string) *JWTMinter {
	return &JWTMinter{
		appID:       strings.TrimSpace(appID),
		certificate: []byte(strings.TrimSpace(certificate)),
		now:         time.Now,
	}
}

// Configured reports whether a signing certificate is set.
func (m *JWTMinter) Configured() bool { return len(m.certificate) > 0 }

func (m *JWTMinter) Mint(ctx context.Context, grant Grant) (string, error) {
	if len(m.certificate) == 0 {
		return "", ErrNotConfigured
	}
	if grant.Channel == "" || grant.UID == "" || grant.ExpiresAt.IsZero() {
		return "", errIncompleteGrant
	}
	now := m.now()
	claims := joinClaims{
		AppID:   m.appID,
		Channel: grant.Channel,
		UID:     grant.UID,
		Role:    grant.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.appID,
			Subject:   grant.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(grant.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.certificate)
}
