package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/wolfman30/telehealth-platform/internal/apperrors"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

var (
	ErrGoogleNotConfigured = apperrors.Validation("Google sign-in is not configured")
	ErrInvalidGoogleToken  = apperrors.Unauthorized("Invalid Google token")
)

// GoogleClaims are the ID token claims the API relies on.
type GoogleClaims struct {
	Subject       string
	Issuer        string
	Email         string
	EmailVerified bool
	Name          string
}

// GoogleVerifier validates Google ID tokens with the idtoken package, which
// fetches and caches Google's signing certificates.
type GoogleVerifier struct {
	clientID   string
	httpClient *http.Client

	mu        sync.Mutex
	validator *idtoken.Validator
}

// NewGoogleVerifier creates a verifier that accepts tokens minted for clientID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// WithHTTPClient routes certificate fetches through client.
func (v *GoogleVerifier) WithHTTPClient(client *http.Client) *GoogleVerifier {
	v.httpClient = client
	return v
}

// Verify validates idToken and returns its claims.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleClaims, error) {
	if v == nil || v.clientID == "" {
		return nil, ErrGoogleNotConfigured
	}
	validator, err := v.getValidator(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := validator.Validate(ctx, idToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}
	if !validGoogleIssuer(payload.Issuer) {
		return nil, ErrInvalidGoogleToken
	}

	claims := &GoogleClaims{Subject: payload.Subject, Issuer: payload.Issuer}
	claims.Email, _ = payload.Claims["email"].(string)
	claims.EmailVerified, _ = payload.Claims["email_verified"].(bool)
	claims.Name, _ = payload.Claims["name"].(string)
	if claims.Email == "" {
		return nil, ErrInvalidGoogleToken
	}
	return claims, nil
}

func (v *GoogleVerifier) getValidator(ctx context.Context) (*idtoken.Validator, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.validator != nil {
		return v.validator, nil
	}
	var opts []idtoken.ClientOption
	if v.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(v.httpClient))
	}
	validator, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("auth: google validator: %w", err)
	}
	v.validator = validator
	return validator, nil
}

func validGoogleIssuer(iss string) bool {
	for _, candidate := range googleIssuers {
		if iss == candidate {
			return true
		}
	}
	return false
}
