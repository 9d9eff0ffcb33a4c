package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/telehealth-platform/internal/appointments"
	"github.com/wolfman30/telehealth-platform/internal/auth"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
)

var slotTime = time.Date(2025, 6, 8, 14, 0, 0, 0, time.UTC)

type fakeAppointments struct {
	byID map[int64]*appointments.Appointment
	now  time.Time
}

func (f *fakeAppointments) Get(ctx context.Context, id int64) (*appointments.Appointment, error) {
	appt, ok := f.byID[id]
	if !ok {
		return nil, appointments.ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

func (f *fakeAppointments) Location() *time.Location { return time.UTC }
func (f *fakeAppointments) Now() time.Time           { return f.now }

func newFixture(t *testing.T, now time.Time, configured bool) (*Service, *fakeAppointments) {
	t.Helper()
	directory := doctors.NewInMemoryRepository()
	_, err := directory.Create(context.Background(), &doctors.Doctor{Name: "Dr. Rajesh Kumar", Specialization: "Cardiologist"})
	require.NoError(t, err)

	appts := &fakeAppointments{now: now, byID: map[int64]*appointments.Appointment{
		1: {ID: 1, UserID: 7, DoctorID: 1, Time: "2025-06-08 14:00", Status: appointments.StatusScheduled},
		2: {ID: 2, UserID: 7, DoctorID: 1, Time: "2025-06-08 14:00", Status: appointments.StatusCancelled},
	}}
	appID := ""
	if configured {
		appID = "app-123"
	}
	return NewService(appts, directory, NewJWTMinter(appID, "cert-secret"), appID, time.Hour, nil), appts
}

func TestPatientAccessGranted(t *testing.T) {
	svc, _ := newFixture(t, slotTime.Add(-4*time.Minute), true)

	access, err := svc.PatientAccess(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, "appointment_1", access.ChannelName)
	assert.Equal(t, "7", access.UID)
	assert.Equal(t, "1001", access.DoctorUserID)
	assert.Equal(t, "Dr. Rajesh Kumar", access.DoctorName)

	claims := joinClaims{}
	_, err = jwt.ParseWithClaims(access.Token, &claims, func(*jwt.Token) (any, error) { return []byte("cert-secret"), nil },
		jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	assert.Equal(t, "appointment_1", claims.Channel)
	assert.Equal(t, RolePublisher, claims.Role)
}

func TestDoctorAccessUsesPortalUIDs(t *testing.T) {
	svc, _ := newFixture(t, slotTime.Add(30*time.Minute), true)

	access, err := svc.DoctorAccess(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "1001", access.UID)
	assert.Equal(t, "2007", access.PatientUserID)

	_, err = svc.DoctorAccess(context.Background(), 2, 1)
	assert.ErrorIs(t, err, ErrDoctorForbidden)
}

func TestAccessChecksInOrder(t *testing.T) {
	ctx := context.Background()

	svc, _ := newFixture(t, slotTime, true)
	_, err := svc.PatientAccess(ctx, 7, 99)
	assert.ErrorIs(t, err, appointments.ErrNotFound)
	_, err = svc.PatientAccess(ctx, 8, 1)
	assert.ErrorIs(t, err, ErrPatientForbidden)
	_, err = svc.PatientAccess(ctx, 7, 2)
	assert.ErrorIs(t, err, ErrNotScheduled)

	early, _ := newFixture(t, slotTime.Add(-6*time.Minute), true)
	_, err = early.PatientAccess(ctx, 7, 1)
	assert.ErrorIs(t, err, ErrOutsideWindow)

	late, _ := newFixture(t, slotTime.Add(31*time.Minute), true)
	_, err = late.PatientAccess(ctx, 7, 1)
	assert.ErrorIs(t, err, ErrOutsideWindow)

	unconfigured, _ := newFixture(t, slotTime, false)
	_, err = unconfigured.PatientAccess(ctx, 7, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMinterRejectsIncompleteGrant(t *testing.T) {
	_, err := NewJWTMinter("app", "cert").Mint(context.Background(), Grant{Channel: "appointment_1"})
	assert.Error(t, err)
	_, err = NewJWTMinter("app", "").Mint(context.Background(), Grant{Channel: "c", UID: "1", ExpiresAt: slotTime})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func routed(r *http.Request, id string, identity auth.Identity) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(auth.WithIdentity(ctx, identity))
}

func TestHandlerStatuses(t *testing.T) {
	svc, _ := newFixture(t, slotTime, true)
	h := NewHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.PatientAccess(rec, routed(httptest.NewRequest(http.MethodGet, "/", nil), "1", auth.Identity{Kind: auth.KindUser, ID: 7}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"msg":"Access granted"`)

	rec = httptest.NewRecorder()
	h.PatientAccess(rec, routed(httptest.NewRequest(http.MethodGet, "/", nil), "2", auth.Identity{Kind: auth.KindUser, ID: 7}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.DoctorAccess(rec, routed(httptest.NewRequest(http.MethodGet, "/", nil), "1", auth.Identity{Kind: auth.KindUser, ID: 7}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	unconfigured, _ := newFixture(t, slotTime, false)
	h = NewHandler(unconfigured, nil)
	rec = httptest.NewRecorder()
	h.PatientAccess(rec, routed(httptest.NewRequest(http.MethodGet, "/", nil), "1", auth.Identity{Kind: auth.KindUser, ID: 7}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Video service not configured. Please contact support.")

	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/video/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestConfiguredRequiresCertificate(t *testing.T) {
	assert.False(t, NewService(nil, nil, NewJWTMinter("app", ""), "app", time.Hour, nil).Configured())
	assert.False(t, NewService(nil, nil, NewJWTMinter("app", "cert"), "", time.Hour, nil).Configured())
	assert.True(t, NewService(nil, nil, NewJWTMinter("app", "cert"), "app", time.Hour, nil).Configured())
}
