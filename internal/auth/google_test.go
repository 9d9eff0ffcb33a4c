package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// certsTransport answers every request with a JWKS holding key.
type certsTransport struct {
	body     []byte
	requests int
}

func (c *certsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.requests++
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(c.body)),
		Request:    req,
	}, nil
}

func newCertsClient(t *testing.T, key *rsa.PrivateKey, kid string) (*http.Client, *certsTransport) {
	t.Helper()
	body, err := json.Marshal(map[string]any{"keys": []map[string]string{{
		"kid": kid,
		"kty": "RSA",
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	}}})
	require.NoError(t, err)
	transport := &certsTransport{body: body}
	return &http.Client{Transport: transport}, transport
}

func signGoogleToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func googleClaims(aud, iss string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            iss,
		"aud":            aud,
		"sub":            "1100042",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"email":          "patient@gmail.com",
		"email_verified": true,
		"name":           "Pat Ient",
	}
}

func TestGoogleVerifierAcceptsValidToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	client, transport := newCertsClient(t, key, "k1")

	verifier := NewGoogleVerifier("client-123").WithHTTPClient(client)
	token := signGoogleToken(t, key, "k1", googleClaims("client-123", "https://accounts.google.com"))

	claims, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "patient@gmail.com", claims.Email)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, "Pat Ient", claims.Name)
	assert.Equal(t, "1100042", claims.Subject)
	assert.Positive(t, transport.requests)
}

func TestGoogleVerifierRejectsWrongAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	client, _ := newCertsClient(t, key, "k1")

	verifier := NewGoogleVerifier("client-123").WithHTTPClient(client)
	token := signGoogleToken(t, key, "k1", googleClaims("someone-else", "accounts.google.com"))

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestGoogleVerifierRejectsForeignIssuer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	client, _ := newCertsClient(t, key, "k1")

	verifier := NewGoogleVerifier("client-123").WithHTTPClient(client)
	token := signGoogleToken(t, key, "k1", googleClaims("client-123", "https://issuer.example.com"))

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestGoogleVerifierRejectsWrongKey(t *testing.T) {
	published, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	client, _ := newCertsClient(t, published, "k1")

	verifier := NewGoogleVerifier("client-123").WithHTTPClient(client)
	token := signGoogleToken(t, other, "k1", googleClaims("client-123", "accounts.google.com"))

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestGoogleVerifierNotConfigured(t *testing.T) {
	_, err := NewGoogleVerifier("").Verify(context.Background(), "x.y.z")
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)
}
