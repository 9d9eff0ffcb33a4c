package appointments

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/telehealth-platform/internal/apperrors"
	"github.com/wolfman30/telehealth-platform/internal/auth"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/internal/http/respond"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// Handler serves the appointment REST endpoints for patients and doctors.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type bookBody struct {
	DoctorID json.Number `json:"doctor_id"`
	Time     string      `json:"time"`
	Reason   string      `json:"reason"`
}

type rescheduleBody struct {
	Time string `json:"time"`
}

// Book handles POST /api/appointments/book.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.patient(w, r)
	if !ok {
		return
	}
	var body bookBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, ErrFieldsRequired)
		return
	}
	doctorID, _ := strconv.ParseInt(body.DoctorID.String(), 10, 64)
	appt, err := h.service.Book(r.Context(), BookRequest{
		UserID:   identity.ID,
		DoctorID: doctorID,
		Time:     body.Time,
		Reason:   body.Reason,
		Source:   "api",
	})
	if err != nil {
		h.fail(w, "book appointment", err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{
		"msg":         "Appointment booked successfully",
		"appointment": appt,
	})
}

// ListMine handles GET /api/appointments/my.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.patient(w, r)
	if !ok {
		return
	}
	views, err := h.service.ListForUser(r.Context(), identity.ID)
	if err != nil {
		h.fail(w, "list appointments", err)
		return
	}
	respond.JSON(w, http.StatusOK, views)
}

// Cancel handles DELETE /api/appointments/{id}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.patient(w, r)
	if !ok {
		return
	}
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Cancel(r.Context(), identity.ID, id); err != nil {
		h.fail(w, "cancel appointment", err)
		return
	}
	respond.Message(w, http.StatusOK, "Appointment cancelled successfully")
}

// Delete handles DELETE /api/appointments/{id}/delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.patient(w, r)
	if !ok {
		return
	}
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), identity.ID, id); err != nil {
		h.fail(w, "delete appointment", err)
		return
	}
	respond.Message(w, http.StatusOK, "Appointment deleted successfully")
}

// Reschedule handles PUT /api/appointments/{id}.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.patient(w, r)
	if !ok {
		return
	}
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}
	var body rescheduleBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, ErrTimeRequired)
		return
	}
	appt, err := h.service.Reschedule(r.Context(), identity.ID, id, body.Time)
	if err != nil {
		h.fail(w, "reschedule appointment", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"msg":         "Appointment rescheduled successfully",
		"appointment": appt,
	})
}

// Cleanup handles POST /api/appointments/cleanup.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.CleanupExpired(r.Context())
	if err != nil {
		h.fail(w, "cleanup appointments", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"msg":     fmt.Sprintf("Cleaned up %d expired appointments", removed),
		"deleted": removed,
	})
}

// DoctorAppointments handles GET /api/doctor/appointments.
func (h *Handler) DoctorAppointments(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.doctor(w, r)
	if !ok {
		return
	}
	views, err := h.service.ListForDoctor(r.Context(), identity.ID)
	if err != nil {
		h.fail(w, "list doctor appointments", err)
		return
	}
	respond.JSON(w, http.StatusOK, views)
}

// Complete handles PUT /api/doctor/appointments/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.doctor(w, r)
	if !ok {
		return
	}
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Complete(r.Context(), identity.ID, id); err != nil {
		h.fail(w, "complete appointment", err)
		return
	}
	respond.Message(w, http.StatusOK, "Appointment marked as completed")
}

func (h *Handler) patient(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || !identity.IsUser() {
		respond.Error(w, auth.ErrInvalidToken)
		return auth.Identity{}, false
	}
	return identity, true
}

func (h *Handler) doctor(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || !identity.IsDoctor() {
		respond.Error(w, doctors.ErrDoctorAccessRequired)
		return auth.Identity{}, false
	}
	return identity, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !apperrors.IsUserFacing(err) {
		h.logger.Error("appointment request failed", "op", op, "error", err)
	}
	respond.Error(w, err)
}

func appointmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, ErrNotFound)
		return 0, false
	}
	return id, true
}
