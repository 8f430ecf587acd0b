package domain

import "errors"

// Authentication errors
var (
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingToken        = errors.New("access token required")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionMismatch     = errors.New("refresh token does not match the current session")
	ErrSessionExpired      = errors.New("session expired or logged in elsewhere")
)

// Authorization errors
var (
	ErrForbidden = errors.New("forbidden")
)

// Lookup and input errors
var (
	ErrNotFound         = errors.New("not found")
	ErrValidationFailed = errors.New("validation failed")
)
