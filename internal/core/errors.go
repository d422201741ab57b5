package core

import "errors"

// Error codes for domain errors. All of them travel in-band on the
// originating session's control topic; none of them close the connection.
const (
	ErrCodeUnknownTarget     = "unknown_target"
	ErrCodeDuplicateSession  = "duplicate_session"
	ErrCodeInvalidPreference = "invalid_preference_value"
	ErrCodeNotRegistered     = "not_registered"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeRateLimited       = "rate_limited"
)

var (
	ErrDuplicateSession = errors.New("session id already registered")
	ErrSessionNotFound  = errors.New("session not found")
	ErrUserNotFound     = errors.New("user not found")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
