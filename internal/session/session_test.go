package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/storage"
	"github.com/Ammar-alrfee/fit-manager/internal/storage/badger"
)

func newIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	table, err := auth.NewCredentialTable(auth.DefaultAccounts, bcrypt.MinCost)
	require.NoError(t, err)
	return auth.NewIssuer(table, auth.NewJWTManager("test-secret", time.Hour))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	issuer := newIssuer(t)

	t.Run("admin credentials persist the identity", func(t *testing.T) {
		slot := &MemorySlot{}
		m := NewManager(issuer, slot, nil)

		identity, err := m.Authenticate(ctx, "admin", "admin123")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, identity.Role)
		assert.True(t, m.Authenticated())
		assert.NotEmpty(t, m.Token())

		payload, err := slot.Load(ctx)
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(payload, &fields))
		assert.Equal(t, "1", fields["id"])
		assert.Equal(t, "admin", fields["username"])
		assert.Equal(t, "admin", fields["role"])
		assert.Equal(t, identity.Name, fields["name"])
	})

	t.Run("wrong password persists nothing", func(t *testing.T) {
		slot := &MemorySlot{}
		m := NewManager(issuer, slot, nil)

		identity, err := m.Authenticate(ctx, "admin", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, identity)
		assert.False(t, m.Authenticated())

		_, err = slot.Load(ctx)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("failed attempt keeps the existing session", func(t *testing.T) {
		m := NewManager(issuer, &MemorySlot{}, nil)
		_, err := m.Authenticate(ctx, "employee", "emp123")
		require.NoError(t, err)

		_, err = m.Authenticate(ctx, "admin", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		current, ok := m.Current()
		require.True(t, ok)
		assert.Equal(t, "employee", current.Username)
	})

	t.Run("attempts are throttled per username", func(t *testing.T) {
		m := NewManager(issuer, &MemorySlot{}, auth.NewThrottle(rate.Every(time.Hour), 2))

		_, err := m.Authenticate(ctx, "admin", "bad")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = m.Authenticate(ctx, "admin", "bad")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = m.Authenticate(ctx, "admin", "admin123")
		assert.ErrorIs(t, err, ErrTooManyAttempts)

		_, err = m.Authenticate(ctx, "employee", "emp123")
		assert.NoError(t, err)
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	issuer := newIssuer(t)

	t.Run("empty slot means no session", func(t *testing.T) {
		m := NewManager(issuer, &MemorySlot{}, nil)
		identity, err := m.Restore(ctx)
		require.NoError(t, err)
		assert.Nil(t, identity)
		assert.False(t, m.Authenticated())
	})

	t.Run("survives a restart on a durable slot", func(t *testing.T) {
		dir := t.TempDir()

		slot, err := badger.Open(badger.Config{Path: dir})
		require.NoError(t, err)
		first := NewManager(issuer, slot, nil)
		_, err = first.Authenticate(ctx, "employee", "emp123")
		require.NoError(t, err)
		token := first.Token()
		require.NoError(t, slot.Close())

		reopened, err := badger.Open(badger.Config{Path: dir})
		require.NoError(t, err)
		defer reopened.Close()

		second := NewManager(issuer, reopened, nil)
		identity, err := second.Restore(ctx)
		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, models.RoleEmployee, identity.Role)
		assert.Equal(t, token, second.Token())
	})

	corrupt := map[string]string{
		"not json":        `{"id": "1", "username":`,
		"wrong shape":     `["admin"]`,
		"missing id":      `{"username":"admin","role":"admin","name":"x"}`,
		"unknown role":    `{"id":"1","username":"admin","role":"owner","name":"x"}`,
		"empty object":    `{}`,
		"plain string":    `"admin"`,
		"binary garbage":  "\x00\x01\x02",
		"truncated token": `{"id":"1","username":"admin","role":"admin","name":"x","token":`,
	}
	for name, payload := range corrupt {
		t.Run("corrupt payload is cleared: "+name, func(t *testing.T) {
			slot := &MemorySlot{}
			require.NoError(t, slot.Save(ctx, []byte(payload)))

			m := NewManager(issuer, slot, nil)
			identity, err := m.Restore(ctx)
			require.NoError(t, err)
			assert.Nil(t, identity)
			assert.False(t, m.Authenticated())

			_, err = slot.Load(ctx)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestDecode_ReportsCorruption(t *testing.T) {
	_, err := decode([]byte("nope"))
	assert.ErrorIs(t, err, ErrCorruptPersistedState)

	rec, err := decode([]byte(`{"id":"2","username":"employee","role":"employee","name":"E"}`))
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, rec.Role)
	assert.Empty(t, rec.Token)
}

func TestEnd(t *testing.T) {
	ctx := context.Background()
	slot, err := badger.OpenInMemory()
	require.NoError(t, err)
	defer slot.Close()

	m := NewManager(newIssuer(t), slot, nil)
	_, err = m.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)

	require.NoError(t, m.End(ctx))
	assert.False(t, m.Authenticated())
	assert.Empty(t, m.Token())

	_, err = slot.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	identity, err := NewManager(newIssuer(t), slot, nil).Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)

	// Ending a signed-out session is harmless
	assert.NoError(t, m.End(ctx))
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	issuer := newIssuer(t)

	signedOut := NewManager(issuer, &MemorySlot{}, nil)
	assert.ErrorIs(t, signedOut.Authorize(AreaAttendance), ErrNotAuthenticated)
	assert.Empty(t, signedOut.Areas())

	admin := NewManager(issuer, &MemorySlot{}, nil)
	_, err := admin.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	for _, area := range []Area{AreaMembers, AreaAttendance, AreaReports} {
		assert.NoError(t, admin.Authorize(area), area)
	}
	assert.Equal(t, []Area{AreaMembers, AreaAttendance, AreaReports}, admin.Areas())

	employee := NewManager(issuer, &MemorySlot{}, nil)
	_, err = employee.Authenticate(ctx, "employee", "emp123")
	require.NoError(t, err)
	assert.NoError(t, employee.Authorize(AreaAttendance))
	assert.ErrorIs(t, employee.Authorize(AreaMembers), ErrForbidden)
	assert.ErrorIs(t, employee.Authorize(AreaReports), ErrForbidden)
	assert.Equal(t, []Area{AreaAttendance}, employee.Areas())
}

func TestCanAccess(t *testing.T) {
	tests := []struct {
		role models.Role
		area Area
		want bool
	}{
		{models.RoleAdmin, AreaMembers, true},
		{models.RoleAdmin, AreaAttendance, true},
		{models.RoleAdmin, AreaReports, true},
		{models.RoleEmployee, AreaMembers, false},
		{models.RoleEmployee, AreaAttendance, true},
		{models.RoleEmployee, AreaReports, false},
		{models.Role("guest"), AreaAttendance, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.area), func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.role, tt.area))
		})
	}
}
