package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domain.ErrMissingToken, http.StatusUnauthorized, "MISSING_TOKEN"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{domain.ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{domain.ErrSessionMismatch, http.StatusUnauthorized, "SESSION_MISMATCH"},
	{domain.ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrDuplicateAccount, http.StatusBadRequest, "DUPLICATE_ACCOUNT"},
	{domain.ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
}

// StatusFor returns the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// WriteError renders err as an ErrorResponse. Unmapped errors are logged
// and reported without detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"error", err,
		)
		message = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// TooManyRequests is the response for rate-limited clients.
func TooManyRequests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: ErrorBody{
		Code:    "RATE_LIMITED",
		Message: "too many requests, try again later",
	}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidationFailed)
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", domain.ErrValidationFailed, name)
	}
	return id, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrValidationFailed, name)
	}
	return n, nil
}

type messageResponse struct {
	Message string `json:"message"`
}
