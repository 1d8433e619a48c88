package backend

import (
	"errors"
	"fmt"

	"github.com/prakasajudha/farewell-pet/pkg/httpx"
)

var (
	// ErrUnauthenticated is a backend 401: the token is invalid, expired or
	// revoked. The dashboard clears the session and redirects to login.
	ErrUnauthenticated = errors.New("backend: unauthenticated")
	// ErrForbidden is a backend 403: authenticated but not allowed. The
	// session is kept; the user is sent to the unauthorized page.
	ErrForbidden = errors.New("backend: forbidden")
)

// ValidationError is a backend 422 carrying per-field failures that are
// mapped field-by-field into form state.
type ValidationError struct {
	Message string
	Fields  []httpx.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("backend: validation failed: %s", e.Message)
}

// APIError is any other non-success status, passed through to the caller
// for page-level handling.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}
