package reminders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/telehealth-platform/internal/auth"
)

func asUser(r *http.Request, id int64) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{Kind: auth.KindUser, ID: id}))
}

func TestHandlerLifecycle(t *testing.T) {
	h := NewHandler(NewService(NewInMemoryRepository(), nil, nil), nil)

	rec := httptest.NewRecorder()
	h.Create(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/reminders", bytes.NewReader([]byte(`{"medication":"Aspirin","time":"08:00"}`))), 1))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ListMine(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/reminders/my", nil), 1))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Reminder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	del := func(userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/api/reminders/1", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "1")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		rec := httptest.NewRecorder()
		h.Delete(rec, asUser(req, userID))
		return rec
	}
	assert.Equal(t, http.StatusForbidden, del(2).Code)
	assert.Equal(t, http.StatusOK, del(1).Code)
	assert.Equal(t, http.StatusNotFound, del(1).Code)
}

func TestHandlerRejectsBadInput(t *testing.T) {
	h := NewHandler(NewService(NewInMemoryRepository(), nil, nil), nil)

	rec := httptest.NewRecorder()
	h.Create(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/reminders", bytes.NewReader([]byte(`{"medication":"Aspirin","time":"8am"}`))), 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ListMine(rec, httptest.NewRequest(http.MethodGet, "/api/reminders/my", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerListEmptyIsArray(t *testing.T) {
	h := NewHandler(NewService(NewInMemoryRepository(), nil, nil), nil)
	rec := httptest.NewRecorder()
	h.ListMine(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/reminders/my", nil), 3))
	assert.JSONEq(t, `[]`, rec.Body.String())
}
