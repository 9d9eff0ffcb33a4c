package chat

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wolfman30/telehealth-platform/internal/apperrors"
	"github.com/wolfman30/telehealth-platform/internal/auth"
	"github.com/wolfman30/telehealth-platform/internal/http/middleware"
	"github.com/wolfman30/telehealth-platform/internal/http/respond"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// TokenResolver maps an optional bearer token to a patient user key.
type TokenResolver interface {
	Resolve(token string) (string, bool)
}

var errMissingToken = apperrors.Unauthorized("Missing token")

const wsWriteTimeout = 10 * time.Second

// Handler exposes the assistant over HTTP and websocket.
type Handler struct {
	engine   *Engine
	resolver TokenResolver
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

// NewHandler creates a chat handler. allowedOrigins restricts websocket
// upgrades; "*" accepts any origin.
func NewHandler(engine *Engine, resolver TokenResolver, allowedOrigins []string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:   engine,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

type submitRequest struct {
	Message json.RawMessage `json:"message"`
}

type submitResponse struct {
	Response string `json:"response"`
}

// Submit handles POST /api/chatbot.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		respond.Message(w, http.StatusBadRequest, "Request must be JSON")
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Request must be JSON")
		return
	}
	var text string
	if err := json.Unmarshal(req.Message, &text); err != nil {
		respond.Error(w, ErrEmptyMessage)
		return
	}

	res, err := h.engine.Submit(r.Context(), Inbound{UserID: h.userID(middleware.BearerToken(r)), Text: text})
	if err != nil {
		if !apperrors.IsUserFacing(err) {
			h.logger.FromContext(r.Context()).Error("chat turn failed", "error", err)
		}
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, submitResponse{Response: res.Reply})
}

type historyEntry struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// History handles GET /api/chatbot/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		respond.Error(w, errMissingToken)
		return
	}
	userID := h.userID(token)
	if userID == 0 {
		respond.Error(w, auth.ErrInvalidToken)
		return
	}
	msgs, err := h.engine.History(r.Context(), userID)
	if err != nil {
		h.logger.FromContext(r.Context()).Error("failed to load chat history", "user_id", userID, "error", err)
		respond.Message(w, http.StatusInternalServerError, "Failed to fetch chat history")
		return
	}
	history := make([]historyEntry, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, historyEntry{Sender: m.Sender, Text: m.Text, Timestamp: m.Timestamp})
	}
	respond.JSON(w, http.StatusOK, map[string]any{"history": history})
}

// Stream handles GET /api/chatbot/ws. Browsers cannot set headers on a
// websocket handshake, so the token may also arrive as ?token=.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	userID := h.userID(token)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	log := h.logger.FromContext(r.Context()).With("user_id", userID)
	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket closed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		res, err := h.engine.Submit(r.Context(), Inbound{UserID: userID, Text: string(payload)})
		var out any
		if err != nil {
			out = map[string]string{"msg": apperrors.Message(err, respond.InternalErrorMessage)}
		} else {
			out = submitResponse{Response: res.Reply}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(out); err != nil {
			log.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (h *Handler) userID(token string) int64 {
	if token == "" || h.resolver == nil {
		return 0
	}
	key, ok := h.resolver.Resolve(token)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

