package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": 9090, "read_timeout": "5s"},
		"database": {"driver": "memory"},
		"security": {"jwt_secret": "from-file", "token_ttl": "2h"},
		"governance": {"require_creator_for_release": true, "require_active_campaign": true},
		"sweeper": {"enabled": true, "schedule": "@every 30s"}
	}`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("GOVERNANCE_REJECT_ON_MAJORITY_AGAINST", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout.Std())
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Security.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Security.TokenTTL.Std())
	assert.True(t, cfg.Governance.RequireCreatorForRelease)
	assert.True(t, cfg.Governance.RejectOnMajorityAgainst)
	assert.Equal(t, "@every 30s", cfg.Sweeper.Schedule)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.False(t, cfg.Governance.RequireCreatorForRelease)
	assert.True(t, cfg.Governance.RequireActiveCampaign)
	assert.False(t, cfg.Governance.RejectOnMajorityAgainst)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := LoadConfig(writeConfig(t, `{}`))
		assert.Error(t, err)
	})
	t.Run("bad driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		_, err := LoadConfig(writeConfig(t, `{"database": {"driver": "sqlite"}}`))
		assert.Error(t, err)
	})
	t.Run("bad json", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		_, err := LoadConfig(writeConfig(t, `{`))
		assert.Error(t, err)
	})
	t.Run("bad port", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		t.Setenv("SERVER_PORT", "eighty")
		_, err := LoadConfig(writeConfig(t, `{}`))
		assert.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		_, err := LoadConfig(writeConfig(t, `{"server": {"read_timeout": "soon"}}`))
		assert.Error(t, err)
	})
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", db.GetDatabaseURL())
}
