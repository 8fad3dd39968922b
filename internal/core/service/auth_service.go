package service

import (
	"context"
	"log"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
	"github.com/rl1809/invoice-dashboard/internal/port"
)

const (
	msgInvalidCredentials = "Invalid credentials."
	msgSomethingWentWrong = "Something went wrong."
)

// AuthOutcome carries a Session on success and a user-facing Message on a
// recognised authentication failure.
type AuthOutcome struct {
	Message string
	Session *domain.Session
}

type AuthService struct {
	provider   port.IdentityProvider
	classifier port.AuthErrorClassifier
}

func NewAuthService(provider port.IdentityProvider, classifier port.AuthErrorClassifier) *AuthService {
	return &AuthService{provider: provider, classifier: classifier}
}

// Authenticate signs the caller in with the submitted credentials. Failures the
// classifier does not recognise as authentication errors are returned as err.
func (s *AuthService) Authenticate(ctx context.Context, _ string, form FormData) (AuthOutcome, error) {
	session, err := s.provider.SignIn(ctx, form)
	if err == nil {
		log.Printf("[auth][service] signed in user_id=%s", session.UserID)
		return AuthOutcome{Session: &session}, nil
	}

	kind, ok := s.classifier.Classify(err)
	if !ok {
		return AuthOutcome{}, err
	}
	log.Printf("[auth][service] sign-in rejected kind=%s err=%v", kind, err)

	switch kind {
	case domain.AuthCredentialsSignin:
		return AuthOutcome{Message: msgInvalidCredentials}, nil
	default:
		return AuthOutcome{Message: msgSomethingWentWrong}, nil
	}
}
