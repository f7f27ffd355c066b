package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/Ammar-alrfee/fit-manager/internal/models"
)

// Authenticator defines the interface for credential checks.
// The only implementation today is the fixed staff credential table, but the
// service layer depends on this interface, not on the table.
type Authenticator interface {
	// Authenticate verifies the credentials and returns the matching identity.
	// Returns ErrInvalidCredentials if they do not match an account.
	Authenticate(ctx context.Context, username, password string) (*models.Identity, error)
}

// Grant is the result of a successful login: who signed in and the bearer
// token that proves it to the API.
type Grant struct {
	Identity  models.Identity `json:"identity"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Issuer authenticates credentials and issues signed tokens for them.
type Issuer struct {
	authenticator Authenticator
	jwtManager    *JWTManager
}

// NewIssuer combines an authenticator with a token manager.
func NewIssuer(authenticator Authenticator, jwtManager *JWTManager) *Issuer {
	return &Issuer{
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

// Login authenticates username/password and returns a grant.
func (i *Issuer) Login(ctx context.Context, username, password string) (*Grant, error) {
	identity, err := i.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := i.jwtManager.Generate(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &Grant{Identity: *identity, Token: token, ExpiresAt: expiresAt}, nil
}
