// Package handlers implements the HTTP surface over the chat service.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/connectcareer/careerflow/types"
)

// Response is the uniform JSON envelope for non-streaming endpoints.
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ErrorInfo is the error payload of a failed Response.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful envelope.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteError classifies err and writes the failure envelope.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	kind := types.ClassifyError(err)
	status := statusForKind(kind)

	if logger != nil {
		logger.Error("request failed",
			zap.String("kind", string(kind)),
			zap.Int("status", status),
			zap.Error(err))
	}

	WriteJSON(w, status, Response{
		Success:   false,
		Error:     &ErrorInfo{Kind: string(kind), Message: err.Error()},
		Timestamp: time.Now(),
	})
}

// WriteErrorMessage writes a failure envelope with an explicit status.
func WriteErrorMessage(w http.ResponseWriter, status int, kind types.ErrorKind, message string) {
	WriteJSON(w, status, Response{
		Success:   false,
		Error:     &ErrorInfo{Kind: string(kind), Message: message},
		Timestamp: time.Now(),
	})
}

func statusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case types.ErrKindModelFailure:
		return http.StatusBadGateway
	case types.ErrKindDomainError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSONBody decodes the request body into dst, rejecting unknown
// fields. On failure it writes the error response and returns the error.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		err := types.NewError(types.ErrKindDomainError, "request body is empty")
		WriteErrorMessage(w, http.StatusBadRequest, err.Kind, err.Message)
		return err
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		apiErr := types.NewError(types.ErrKindDomainError, "invalid JSON body").WithCause(err)
		WriteErrorMessage(w, http.StatusBadRequest, apiErr.Kind, apiErr.Message)
		return apiErr
	}
	return nil
}
