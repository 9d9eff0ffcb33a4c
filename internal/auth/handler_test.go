package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/telehealth-platform/internal/users"
	"golang.org/x/crypto/bcrypt"
)

type recordingResetter struct {
	mu    sync.Mutex
	reset []int64
}

func (r *recordingResetter) ResetSession(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset = append(r.reset, userID)
	return nil
}

func newTestHandler() (*Handler, *recordingResetter) {
	svc := users.NewService(users.NewInMemoryRepository(), nil).WithHashCost(bcrypt.MinCost)
	resetter := &recordingResetter{}
	return NewHandler(svc, NewIssuer("secret", time.Hour), nil, resetter, nil), resetter
}

func postJSON(t *testing.T, fn http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestRegisterLoginFlow(t *testing.T) {
	h, resetter := newTestHandler()

	rec := postJSON(t, h.Register, credentialsRequest{Email: "p@example.com", Password: "pw"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, h.Register, credentialsRequest{Email: "p@example.com", Password: "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "User already exists")

	rec = postJSON(t, h.Login, credentialsRequest{Email: "p@example.com", Password: "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, []int64{1}, resetter.reset, "login starts a fresh chat session")
}

func TestLoginInvalidCredentials(t *testing.T) {
	h, resetter := newTestHandler()
	rec := postJSON(t, h.Login, credentialsRequest{Email: "nobody@example.com", Password: "pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	assert.Empty(t, resetter.reset)

	rec = postJSON(t, h.Login, credentialsRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email and password are required")
}

func TestLogoutResetsSession(t *testing.T) {
	h, resetter := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{Kind: KindUser, ID: 9}))
	rec := httptest.NewRecorder()

	h.Logout(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{9}, resetter.reset)
}

func TestMeReturnsProfile(t *testing.T) {
	h, _ := newTestHandler()
	ctx := context.Background()
	user, err := h.users.Register(ctx, "me@example.com", "pw")
	require.NoError(t, err)
	_, err = h.users.CreateProfile(ctx, user.ID, "Meera", 40, "asthma")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{Kind: KindUser, ID: user.ID}))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "asthma")
}

func TestGoogleNotConfigured(t *testing.T) {
	h, _ := newTestHandler()
	rec := postJSON(t, h.Google, googleRequest{Token: "a.b.c"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
