package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, auth.DefaultAccounts, cfg.Auth.Accounts)
	assert.True(t, cfg.Seed)
	assert.Equal(t, calculator.DefaultPrices, cfg.Prices.Table())

	loc, err := cfg.Attendance.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yaml")
	content := `
storage:
  driver: sqlite
  sqlite_path: /tmp/fm.db
auth:
  token_ttl: 2h
  accounts:
    - id: "9"
      username: front
      password: desk
      role: employee
      name: Front Desk
prices:
  monthly: 250
attendance:
  timezone: Africa/Cairo
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("FITMANAGER_HTTP_ADDR", ":9999")
	t.Setenv("FITMANAGER_SEED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.False(t, cfg.Seed)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/fm.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	require.Len(t, cfg.Auth.Accounts, 1)
	assert.Equal(t, models.RoleEmployee, cfg.Auth.Accounts[0].Role)
	assert.Equal(t, "front", cfg.Auth.Accounts[0].Username)
	assert.InDelta(t, 250.0, cfg.Prices.Monthly, 0.001)
	assert.InDelta(t, 500.0, cfg.Prices.Quarterly, 0.001)
	assert.Equal(t, "Africa/Cairo", cfg.Attendance.Timezone)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"FITMANAGER_STORAGE_DRIVER": "postgres"}},
		{"negative token ttl", map[string]string{"FITMANAGER_AUTH_TOKEN_TTL": "-1h"}},
		{"bad timezone", map[string]string{"FITMANAGER_ATTENDANCE_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load("does-not-exist.yaml")
		assert.Error(t, err)
	})
}

func TestAuthConfig_Limit(t *testing.T) {
	assert.InDelta(t, 0.5, float64(AuthConfig{LoginRate: 30}.Limit()), 1e-9)
}
