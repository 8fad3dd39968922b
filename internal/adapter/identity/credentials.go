package identity

import (
	"context"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
	"github.com/rl1809/invoice-dashboard/internal/port"
)

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// CredentialsProvider signs users in with email and password checked against
// the bcrypt hash in the user store.
type CredentialsProvider struct {
	users    port.UserRepository
	tokens   *TokenManager
	validate *validator.Validate
}

var _ port.IdentityProvider = (*CredentialsProvider)(nil)

func NewCredentialsProvider(users port.UserRepository, tokens *TokenManager) *CredentialsProvider {
	return &CredentialsProvider{
		users:    users,
		tokens:   tokens,
		validate: validator.New(),
	}
}

func (p *CredentialsProvider) SignIn(ctx context.Context, form map[string]string) (domain.Session, error) {
	creds := credentials{
		Email:    strings.TrimSpace(form["email"]),
		Password: form["password"],
	}
	if err := p.validate.Struct(creds); err != nil {
		return domain.Session{}, newError(domain.AuthCredentialsSignin, errInvalidInput)
	}

	user, err := p.users.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		log.Printf("[auth][identity] user lookup failed email=%s err=%v", creds.Email, err)
		return domain.Session{}, newError(domain.AuthCallbackRouteError, err)
	}
	if user == nil {
		return domain.Session{}, newError(domain.AuthCredentialsSignin, errUnknownUser)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		return domain.Session{}, newError(domain.AuthCredentialsSignin, errWrongPassword)
	}

	return p.tokens.Issue(*user)
}

// HashPassword returns the bcrypt hash stored for a user password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
