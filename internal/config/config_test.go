package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CONFIG_FILE", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "connecthub.yaml")
	yml := "port: \"7000\"\nmongo_db: fromfile\njwt_secret: filesecret\nsuggestion_pool_size: 50\ntoken_expiry: 1h\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "fromfile", cfg.MongoDB)
	assert.Equal(t, "filesecret", cfg.JWTSecret)
	assert.Equal(t, 50, cfg.SuggestionPoolSize)
	assert.Equal(t, time.Hour, cfg.TokenExpiry)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadConfigRejectsBadNumbers(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SUGGESTION_POOL_SIZE", "lots")

	_, err := LoadConfig()
	assert.Error(t, err)
}
