package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lanternhq/beacon/internal/apperr"
)

// Respond writes a JSON response with the given status code.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// ErrorResponse is the standard JSON error envelope: `{error: "<short-tag>"}`.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondError writes the JSON error envelope, picking an HTTP status from
// the error's apperr.Kind when it carries one.
func RespondError(w http.ResponseWriter, err error) {
	status := statusForKind(apperr.KindOf(err))
	tag := apperr.TagOf(err)
	if tag == "" {
		tag = err.Error()
	}
	Respond(w, status, ErrorResponse{Error: tag})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindSerialization:
		return http.StatusBadRequest
	case apperr.KindTransport, apperr.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
