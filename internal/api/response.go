package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// SuccessResponse is the envelope of every 2xx body: {"data": ...}.
type SuccessResponse struct {
	Data any `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error JSON response
// Error writes a handler-level failure, deriving the code from status so
// clients see the same {error, code} shape as domain errors.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message, Code: codeForStatus(status)})
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusNotFound:
		return domain.ErrCodeNotFound
	case status == http.StatusConflict:
		return domain.ErrCodeAlreadyExists
	case status == http.StatusServiceUnavailable:
		return domain.ErrCodeConfiguration
	case status >= 400 && status < 500:
		return domain.ErrCodeValidation
	default:
		return domain.ErrCodeInternalError
	}
}

// DomainErrorToHTTP maps domain errors to HTTP status codes
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeAlreadyExists:
		return http.StatusConflict
	case domain.ErrCodeConfiguration, domain.ErrCodeResourceInit:
		return http.StatusServiceUnavailable
	case domain.ErrCodeTransientIO:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes the status and body for err. Causes of 5xx errors stay
// out of the body; errors without a domain code are reported as internal.
func HandleError(w http.ResponseWriter, err error) {
	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		JSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  domain.ErrCodeInternalError,
		})
		return
	}

	status := DomainErrorToHTTP(domainErr)
	message := domainErr.Error()
	if status >= http.StatusInternalServerError {
		message = domainErr.Message
	}
	JSON(w, status, ErrorResponse{Error: message, Code: domainErr.Code})
}
