package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Ammar-alrfee/fit-manager/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateAccount   = errors.New("duplicate account username")
)

// Account is one entry of the staff credential table as configured.
type Account struct {
	ID       string      `mapstructure:"id" yaml:"id"`
	Username string      `mapstructure:"username" yaml:"username"`
	Password string      `mapstructure:"password" yaml:"password"`
	Role     models.Role `mapstructure:"role" yaml:"role"`
	Name     string      `mapstructure:"name" yaml:"name"`
}

// DefaultAccounts are the built-in staff accounts.
var DefaultAccounts = []Account{
	{ID: "1", Username: "admin", Password: "admin123", Role: models.RoleAdmin, Name: "مدير النظام"},
	{ID: "2", Username: "employee", Password: "emp123", Role: models.RoleEmployee, Name: "موظف الاستقبال"},
}

type account struct {
	identity     models.Identity
	passwordHash []byte
}

// CredentialTable implements password authentication against a fixed set of
// accounts using bcrypt. It is read-only after construction.
type CredentialTable struct {
	accounts  map[string]account
	dummyHash []byte
}

// Ensure CredentialTable implements Authenticator
var _ Authenticator = (*CredentialTable)(nil)

// NewCredentialTable hashes the configured passwords with the given bcrypt
// cost (bcrypt.DefaultCost when cost is 0).
func NewCredentialTable(accounts []Account, cost int) (*CredentialTable, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	table := &CredentialTable{accounts: make(map[string]account, len(accounts))}
	for _, a := range accounts {
		if !a.Role.Valid() {
			return nil, fmt.Errorf("account %q: unknown role %q", a.Username, a.Role)
		}
		if _, exists := table.accounts[a.Username]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, a.Username)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %q: %w", a.Username, err)
		}

		table.accounts[a.Username] = account{
			identity: models.Identity{
				ID:       a.ID,
				Username: a.Username,
				Role:     a.Role,
				Name:     a.Name,
			},
			passwordHash: hash,
		}
	}

	// Compared against for unknown usernames so both paths cost one bcrypt check
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash dummy password: %w", err)
	}
	table.dummyHash = dummy

	return table, nil
}

// Authenticate verifies the username and password, returning the identity if valid.
func (t *CredentialTable) Authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	acct, ok := t.accounts[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(t.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	identity := acct.identity
	return &identity, nil
}
