package shared

import "errors"

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when the CSRF token is missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError carries a user-facing message for a rejected submission.
// The message is safe to show in a flash notice; Cause keeps the underlying
// error for the log.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError builds a ValidationError with the given message and
// optional underlying cause.
func NewValidationError(msg string, cause error) error {
	return &ValidationError{Message: msg, Cause: cause}
}

// UserSafeMessage extracts a message suitable for end users. Internal errors
// collapse to a generic sentence so operators read the log, not the browser.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	if errors.Is(err, ErrNotFound) {
		return "L'enregistrement demandé est introuvable."
	}
	return "Une erreur est survenue. Veuillez réessayer."
}
