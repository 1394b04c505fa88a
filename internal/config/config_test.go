package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restro-hq/restro-server/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  environment: production
api:
  port: 9090
jwt:
  secret: super-secret
  token_ttl: 24h
license:
  valid_keys:
    - RPK-2024-ADMIN-001
    - RPK-2024-DEMO-001
  seed:
    - key: RPK-2024-ADMIN-001
      plan: professional
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "super-secret", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenTTL)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"RPK-2024-ADMIN-001", "RPK-2024-DEMO-001"}, cfg.License.ValidKeys)
	require.Len(t, cfg.License.Seed, 1)
	assert.Equal(t, "professional", cfg.License.Seed[0].Plan)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, "restro-server", cfg.Server.Name)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TokenTTL)
	assert.Equal(t, "info", cfg.Log.Level)

	// Without a configured secret a random one is generated
	assert.NotEmpty(t, cfg.JWT.Secret)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "from-env")

	cfg, err := config.Load(writeConfig(t, `
jwt:
  secret: ${TEST_JWT_SECRET}
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
