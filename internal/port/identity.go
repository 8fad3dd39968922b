package port

import (
	"context"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

type IdentityProvider interface {
	// SignIn verifies raw form credentials and opens a session
	SignIn(ctx context.Context, credentials map[string]string) (domain.Session, error)
}

type AuthErrorClassifier interface {
	// Classify reports the failure kind of an authentication error, false when
	// err does not belong to the authentication family
	Classify(err error) (domain.AuthFailureKind, bool)
}
