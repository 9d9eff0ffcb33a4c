package doctors

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/telehealth-platform/internal/apperrors"
	"github.com/wolfman30/telehealth-platform/internal/auth"
	"github.com/wolfman30/telehealth-platform/internal/http/respond"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// Handler serves the doctor directory and the doctor portal login.
type Handler struct {
	service *Service
	issuer  *auth.Issuer
	logger  *logging.Logger
}

// NewHandler creates a doctors handler.
func NewHandler(service *Service, issuer *auth.Issuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, issuer: issuer, logger: logger}
}

// List handles GET /api/doctors.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		respond.Error(w, err)
		return
	}
	if list == nil {
		list = []*Doctor{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// Get handles GET /api/doctors/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, ErrDoctorNotFound)
		return
	}
	doctor, err := h.service.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, doctor)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/doctor/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, ErrCredentialsRequired)
		return
	}
	doctor, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !apperrors.IsUserFacing(err) {
			h.logger.Error("doctor login failed", "error", err)
		}
		respond.Error(w, err)
		return
	}
	token, err := h.issuer.Issue(auth.Identity{Kind: auth.KindDoctor, ID: doctor.ID})
	if err != nil {
		h.logger.Error("failed to issue doctor token", "error", err)
		respond.Error(w, err)
		return
	}
	h.logger.Info("doctor logged in", "doctor_id", doctor.ID)
	respond.JSON(w, http.StatusOK, map[string]any{"token": token, "doctor": doctor})
}

// Me handles GET /api/doctor/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.Kind != auth.KindDoctor {
		respond.Error(w, ErrDoctorAccessRequired)
		return
	}
	doctor, err := h.service.Get(r.Context(), identity.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, doctor)
}
