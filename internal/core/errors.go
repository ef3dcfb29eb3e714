package core

// Error codes for domain errors surfaced to clients as typed error events.
const (
	ErrCodeAuthFailed       = "auth_failed"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeEmptyContent     = "empty_content"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeStoreConflict    = "store_conflict"
	ErrCodeStoreUnavailable = "store_unavailable"
)

// Error wraps a code and human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError constructs a typed domain error.
func NewError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}
