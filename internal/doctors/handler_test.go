package doctors

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/telehealth-platform/internal/auth"
)

func TestHandlerListAndGet(t *testing.T) {
	h := NewHandler(seededService(t), auth.NewIssuer("secret", time.Hour), nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/doctors", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Doctor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 4)
	assert.NotContains(t, rec.Body.String(), "password")

	get := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/doctors/"+id, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		rec := httptest.NewRecorder()
		h.Get(rec, req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx)))
		return rec
	}
	assert.Equal(t, http.StatusOK, get("2").Code)
	assert.Equal(t, http.StatusNotFound, get("99").Code)
	assert.Equal(t, http.StatusNotFound, get("abc").Code)
}

func TestHandlerLoginIssuesDoctorToken(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	h := NewHandler(seededService(t), issuer, nil)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/doctor/login",
		bytes.NewReader([]byte(`{"email":"doctor_amit@clinic.com","password":"doctor123"}`))))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token  string `json:"token"`
		Doctor Doctor `json:"doctor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	identity, err := issuer.Verify(body.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsDoctor())
	assert.Equal(t, body.Doctor.ID, identity.ID)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/doctor/login",
		bytes.NewReader([]byte(`{"email":"doctor_amit@clinic.com","password":"nope"}`))))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerMeRequiresDoctor(t *testing.T) {
	h := NewHandler(seededService(t), auth.NewIssuer("secret", time.Hour), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/doctor/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{Kind: auth.KindUser, ID: 1})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.Me(rec, req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{Kind: auth.KindDoctor, ID: 1})))
	assert.Equal(t, http.StatusOK, rec.Code)
}
