package web

// errors.go provides unified error responses for the web layer.
//
// Every error is logged with its technical detail and the request ID, and
// returned to the client as a core.UserMessage so the JSON body carries a
// message, a suggested action and a support code.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/JonMunkholm/xlimport/internal/logging"
)

// ErrorResponse is the JSON body of API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError maps err to a user-facing message and writes it with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, r, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// writeError writes a fixed message that needs no mapping.
func writeError(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	logging.FromContext(r.Context()).Warn("request rejected",
		"path", r.URL.Path,
		"status", status,
		"reason", message,
	)
	writeJSON(w, r, status, ErrorResponse{Error: message, Message: message, Code: code})
}

// statusForImportError picks the status for an error that kept an import
// from starting.
func statusForImportError(err error) int {
	var cfgErr *core.ConfigError
	switch {
	case errors.Is(err, core.ErrUnknownRecordType):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
