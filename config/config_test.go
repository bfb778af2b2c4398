package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "https://api.bookeo.com/v2", cfg.Bookeo.BaseURL)
	assert.Equal(t, 600, cfg.Session.TTLSeconds)
	assert.False(t, cfg.Validate.RequireHandshake)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL_SEC", "120")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("WAIVER_VALIDATE_REQUIRE_HANDSHAKE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 120, cfg.Session.TTLSeconds)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Validate.RequireHandshake)
}

func TestSplitTrim(t *testing.T) {
	assert.Nil(t, splitTrim("", ","))
	assert.Equal(t, []string{"a", "b"}, splitTrim(" a ,b", ","))
}
