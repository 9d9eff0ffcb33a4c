package appointments

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

func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func msgOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["msg"].(string)
	return msg
}

func TestHandlerBook(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.svc, nil)

	payload := []byte(`{"doctor_id": "1", "time": "2025-06-08 14:00", "reason": "checkup"}`)
	rec := httptest.NewRecorder()
	h.Book(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/appointments/book", bytes.NewReader(payload)), 1))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Book(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/appointments/book", bytes.NewReader(payload)), 2))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This time slot is already booked", msgOf(t, rec))

	rec = httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/api/appointments/book", bytes.NewReader(payload)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerBookInvalidTime(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.svc, nil)

	payload := []byte(`{"doctor_id": 1, "time": "next week", "reason": "checkup"}`)
	rec := httptest.NewRecorder()
	h.Book(rec, asUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload)), 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid time format. Use YYYY-MM-DD HH:MM", msgOf(t, rec))
}

func TestHandlerCancelForbidden(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.svc, nil)
	appt, err := env.svc.Book(context.Background(), BookRequest{UserID: 1, DoctorID: 1, Time: "2025-06-08 14:00", Reason: "checkup"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := withID(asUser(httptest.NewRequest(http.MethodDelete, "/", nil), 2), "1")
	h.Cancel(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized to cancel this appointment", msgOf(t, rec))

	rec = httptest.NewRecorder()
	req = withID(asUser(httptest.NewRequest(http.MethodDelete, "/", nil), 1), "1")
	h.Cancel(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := env.svc.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestHandlerDoctorRoutesRequireDoctor(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.svc, nil)

	rec := httptest.NewRecorder()
	h.DoctorAppointments(rec, asUser(httptest.NewRequest(http.MethodGet, "/", nil), 1))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Doctor access required", msgOf(t, rec))
}
