package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/telehealth-platform/internal/apperrors"
	"github.com/wolfman30/telehealth-platform/internal/http/respond"
	"github.com/wolfman30/telehealth-platform/internal/users"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// SessionResetter clears the chat session (dialogue state and transcript) at a login boundary.
type SessionResetter interface {
	ResetSession(ctx context.Context, userID int64) error
}

// Handler serves patient registration, login and logout.
type Handler struct {
	users    *users.Service
	issuer   *Issuer
	google   *GoogleVerifier
	sessions SessionResetter
	logger   *logging.Logger
}

// NewHandler creates an auth handler. sessions and google may be nil.
func NewHandler(userService *users.Service, issuer *Issuer, google *GoogleVerifier, sessions SessionResetter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{users: userService, issuer: issuer, google: google, sessions: sessions, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, users.ErrCredentialsRequired)
		return
	}
	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure("registration failed", err)
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{
		"msg":     "User registered successfully",
		"user_id": user.ID,
	})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, users.ErrCredentialsRequired)
		return
	}
	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure("login failed", err)
		respond.Error(w, err)
		return
	}
	h.startSession(w, r, user)
}

// Google handles POST /api/auth/google.
func (h *Handler) Google(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respond.Error(w, ErrInvalidGoogleToken)
		return
	}
	claims, err := h.google.Verify(r.Context(), req.Token)
	if err != nil {
		h.logFailure("google token rejected", err)
		if !apperrors.IsUserFacing(err) {
			err = ErrInvalidGoogleToken
		}
		respond.Error(w, err)
		return
	}
	user, err := h.users.FindOrCreateByEmail(r.Context(), claims.Email)
	if err != nil {
		h.logFailure("google login failed", err)
		respond.Error(w, err)
		return
	}
	h.startSession(w, r, user)
}

// Logout handles POST /api/auth/logout. Tokens are stateless; logout ends the chat session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if ok && identity.IsUser() {
		h.resetSession(r.Context(), identity)
	}
	respond.Message(w, http.StatusOK, "Logged out successfully")
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok || !identity.IsUser() {
		respond.Error(w, ErrInvalidToken)
		return
	}
	user, err := h.users.Get(r.Context(), identity.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	profile, err := h.users.Profile(r.Context(), identity.ID)
	if err != nil && !errors.Is(err, users.ErrProfileNotFound) {
		h.logger.Error("failed to load profile", "user_id", identity.ID, "error", err)
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": user, "profile": profile})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *users.User) {
	identity := Identity{Kind: KindUser, ID: user.ID}
	token, err := h.issuer.Issue(identity)
	if err != nil {
		h.logger.Error("failed to issue token", "user_id", user.ID, "error", err)
		respond.Error(w, err)
		return
	}
	h.resetSession(r.Context(), identity)
	h.logger.Info("user logged in", "user_id", user.ID)
	respond.JSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (h *Handler) resetSession(ctx context.Context, identity Identity) {
	if h.sessions == nil {
		return
	}
	if err := h.sessions.ResetSession(ctx, identity.ID); err != nil {
		h.logger.Warn("failed to reset chat session", "user_id", identity.ID, "error", err)
	}
}

func (h *Handler) logFailure(msg string, err error) {
	if apperrors.IsUserFacing(err) {
		h.logger.Info(msg, "reason", err.Error())
		return
	}
	h.logger.Error(msg, "error", err)
}
