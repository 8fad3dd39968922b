package identity

import (
	"errors"
	"fmt"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

// Error is the failure type of the identity provider. Every error of this type
// belongs to the authentication family; Type says which kind.
type Error struct {
	Type domain.AuthFailureKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Type)
	}
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind domain.AuthFailureKind, err error) *Error {
	return &Error{Type: kind, Err: err}
}

var (
	errInvalidInput  = errors.New("invalid credentials input")
	errUnknownUser   = errors.New("no user with that email")
	errWrongPassword = errors.New("password mismatch")
)

// Classifier recognises *Error values anywhere in an error chain.
type Classifier struct{}

func (Classifier) Classify(err error) (domain.AuthFailureKind, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Type, true
	}
	return "", false
}
