package reminders

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

// Handler serves the reminder REST endpoints.
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

type createBody struct {
	Medication string `json:"medication"`
	Time       string `json:"time"`
}

// Create handles POST /api/reminders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || !identity.IsUser() {
		respond.Error(w, auth.ErrInvalidToken)
		return
	}
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, ErrFieldsRequired)
		return
	}
	rem, err := h.service.Create(r.Context(), identity.ID, body.Medication, body.Time)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{
		"msg":      "Reminder set successfully",
		"reminder": rem,
	})
}

// ListMine handles GET /api/reminders/my.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || !identity.IsUser() {
		respond.Error(w, auth.ErrInvalidToken)
		return
	}
	list, err := h.service.ListForUser(r.Context(), identity.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	if list == nil {
		list = []*Reminder{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// Delete handles DELETE /api/reminders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || !identity.IsUser() {
		respond.Error(w, auth.ErrInvalidToken)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), identity.ID, id); err != nil {
		h.fail(w, err)
		return
	}
	respond.Message(w, http.StatusOK, "Reminder deleted successfully")
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if !apperrors.IsUserFacing(err) {
		h.logger.Error("reminder request failed", "error", err)
	}
	respond.Error(w, err)
}
