package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyUser(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, err := issuer.Issue(Identity{Kind: KindUser, ID: 42})
	require.NoError(t, err)

	identity, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{Kind: KindUser, ID: 42}, identity)

	key, ok := issuer.Resolve(token)
	assert.True(t, ok)
	assert.Equal(t, "42", key)
}

func TestIssueAndVerifyDoctor(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, err := issuer.Issue(Identity{Kind: KindDoctor, ID: 3})
	require.NoError(t, err)

	identity, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.True(t, identity.IsDoctor())

	_, ok := issuer.Resolve(token)
	assert.False(t, ok, "doctor tokens never resolve to a chat user")
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := issuer.Issue(Identity{Kind: KindUser, ID: 1})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	token, err := NewIssuer("other", time.Hour).Issue(Identity{Kind: KindUser, ID: 1})
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = NewIssuer("secret", time.Hour).Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsBadSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "doctor_abc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueWithoutSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour).Issue(Identity{Kind: KindUser, ID: 1})
	assert.Error(t, err)
}
