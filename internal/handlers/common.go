// Package handlers wires the HTTP surface to the graph and search
// services and maps the error taxonomy onto status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"synapse-backend/pkg/api"
	appErrors "synapse-backend/pkg/errors"
)

// statusFor maps the error taxonomy to HTTP status codes: validation
// failures are the caller's fault, missing rows are 404, an exhausted
// time budget is a gateway timeout and transient storage trouble asks
// the caller to retry.
func statusFor(err error) int {
	switch {
	case appErrors.IsValidation(err):
		return http.StatusBadRequest
	case appErrors.IsNotFound(err):
		return http.StatusNotFound
	case appErrors.IsTimeout(err):
		return http.StatusGatewayTimeout
	case appErrors.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a JSON error response. Internal details stay
// in the log; the client sees the stable code and message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", zap.Error(err))
		}
		api.ErrorWithCode(w, status, appErr.Code, appErr.Message)
		return
	}
	logger.Error("request failed", zap.Error(err))
	api.Error(w, http.StatusInternalServerError, "Internal server error")
}

// decodeAndValidate parses the JSON body into v and runs struct
// validation. On failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		api.ErrorWithCode(w, http.StatusBadRequest, appErrors.CodeMissingParameter, "invalid JSON body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		api.ErrorWithCode(w, http.StatusBadRequest, appErrors.CodeMissingParameter, err.Error())
		return false
	}
	return true
}
