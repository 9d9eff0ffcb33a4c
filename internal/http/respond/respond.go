// Package respond writes JSON responses in the {"msg": "..."} shape used by the API.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/telehealth-platform/internal/apperrors"
)

// InternalErrorMessage is shown when an error carries no user-facing text.
const InternalErrorMessage = "Internal server error"

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Message writes {"msg": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"msg": msg})
}

// Error maps err to a status code and writes its user-facing message.
func Error(w http.ResponseWriter, err error) {
	Message(w, apperrors.HTTPStatus(err), apperrors.Message(err, InternalErrorMessage))
}
