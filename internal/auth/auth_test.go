package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/Ammar-alrfee/fit-manager/internal/models"
)

func newTable(t *testing.T) *CredentialTable {
	t.Helper()
	table, err := NewCredentialTable(DefaultAccounts, bcrypt.MinCost)
	require.NoError(t, err)
	return table
}

func TestCredentialTable_Authenticate(t *testing.T) {
	ctx := context.Background()
	table := newTable(t)

	tests := []struct {
		name     string
		username string
		password string
		wantRole models.Role
		wantErr  error
	}{
		{name: "admin", username: "admin", password: "admin123", wantRole: models.RoleAdmin},
		{name: "employee", username: "employee", password: "emp123", wantRole: models.RoleEmployee},
		{name: "wrong password", username: "admin", password: "wrong", wantErr: ErrInvalidCredentials},
		{name: "cross password", username: "employee", password: "admin123", wantErr: ErrInvalidCredentials},
		{name: "unknown user", username: "root", password: "admin123", wantErr: ErrInvalidCredentials},
		{name: "empty", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := table.Authenticate(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, identity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, identity.Role)
			assert.Equal(t, tt.username, identity.Username)
			assert.NotEmpty(t, identity.Name)
		})
	}
}

func TestNewCredentialTable_RejectsBadAccounts(t *testing.T) {
	_, err := NewCredentialTable([]Account{{Username: "x", Password: "y", Role: "owner"}}, bcrypt.MinCost)
	assert.Error(t, err)

	_, err = NewCredentialTable([]Account{
		{Username: "x", Password: "y", Role: models.RoleAdmin},
		{Username: "x", Password: "z", Role: models.RoleEmployee},
	}, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	identity := &models.Identity{ID: "1", Username: "admin", Role: models.RoleAdmin, Name: "Admin"}

	token, expiresAt, err := manager.Generate(identity)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, *identity, claims.Identity())

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTManager("other-secret", time.Hour).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired, _, err := NewJWTManager("test-secret", -time.Minute).Generate(identity)
		require.NoError(t, err)
		_, err = manager.Validate(expired)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := manager.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestIssuer_Login(t *testing.T) {
	issuer := NewIssuer(newTable(t), NewJWTManager("secret", time.Hour))

	grant, err := issuer.Login(context.Background(), "employee", "emp123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, grant.Identity.Role)
	assert.NotEmpty(t, grant.Token)

	_, err = issuer.Login(context.Background(), "employee", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestThrottle(t *testing.T) {
	throttle := NewThrottle(rate.Every(time.Hour), 2)

	assert.True(t, throttle.Allow("admin"))
	assert.True(t, throttle.Allow("admin"))
	assert.False(t, throttle.Allow("admin"))
	assert.True(t, throttle.Allow("employee"))

	var none *Throttle
	assert.True(t, none.Allow("anyone"))
}
