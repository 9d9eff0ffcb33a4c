package video

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/telehealth-platform/internal/appointments"
	"github.com/wolfman30/telehealth-platform/internal/auth"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/internal/http/respond"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// Handler serves the video access endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type accessResponse struct {
	Msg string `json:"msg"`
	*Access
}

// PatientAccess handles GET /api/appointments/{id}/video-access.
func (h *Handler) PatientAccess(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || !identity.IsUser() {
		respond.Error(w, auth.ErrInvalidToken)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, appointments.ErrNotFound)
		return
	}
	access, err := h.service.PatientAccess(r.Context(), identity.ID, id)
	h.write(w, access, err)
}

// DoctorAccess handles GET /api/doctor/appointments/{id}/video-access.
func (h *Handler) DoctorAccess(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || !identity.IsDoctor() {
		respond.Error(w, doctors.ErrDoctorAccessRequired)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, appointments.ErrNotFound)
		return
	}
	access, err := h.service.DoctorAccess(r.Context(), identity.ID, id)
	h.write(w, access, err)
}

// Health handles GET /api/video/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]any{
			"video_available":   false,
			"credentials_valid": false,
			"message":           "Video credentials are not configured",
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"video_available":   true,
		"credentials_valid": true,
		"message":           "Valid credentials",
	})
}

func (h *Handler) write(w http.ResponseWriter, access *Access, err error) {
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, accessResponse{Msg: "Access granted", Access: access})
	case errors.Is(err, ErrNotConfigured):
		respond.Message(w, http.StatusInternalServerError, ErrNotConfigured.Message)
	default:
		h.logger.Warn("video access failed", "error", err)
		respond.Error(w, err)
	}
}
