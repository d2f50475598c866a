// Package response writes the uniform JSON envelope every endpoint returns:
// {"code", "message", "data"} on success and {"code", "message", "details"} on failure.
// The message is always empty; clients map the code to text.
package response

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"communityboard/pkg/apperr"
)

const (
	CodeSuccess = "SUCCESS"
	CodeCreated = "CREATED"
	CodeUpdated = "UPDATED"
	CodeDeleted = "DELETED"
)

type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

var empty = struct{}{}

// Success writes data under code with the given status.
func Success(w http.ResponseWriter, logger *zap.SugaredLogger, status int, code string, data any) bool {
	if data == nil {
		data = empty
	}
	return write(w, logger, status, Envelope{Code: code, Data: data})
}

// Error maps err onto its status and code.
func Error(w http.ResponseWriter, logger *zap.SugaredLogger, err error) bool {
	return Fail(w, logger, err, nil)
}

// Fail is Error with extra details, e.g. per-field validation tags.
func Fail(w http.ResponseWriter, logger *zap.SugaredLogger, err error, details any) bool {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Errorw("request failed", "status", status, "error", err)
	}
	if details == nil {
		details = empty
	}
	return write(w, logger, status, Envelope{Code: apperr.Code(err), Details: details})
}

func write(w http.ResponseWriter, logger *zap.SugaredLogger, status int, body Envelope) bool {
	resp, err := json.Marshal(body)
	if err != nil {
		logger.Errorw("failed to serialize JSON response", "error", err)
		http.Error(w, `{"code":"INTERNAL_SERVER_ERROR","message":""}`, http.StatusInternalServerError)
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(resp); err != nil {
		logger.Errorw("failed to write response to client", "error", err)
		return false
	}
	return true
}
