package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("SIGNUP_HTTP_ADDR", ":9999")
	t.Setenv("SIGNUP_DB_DRIVER", "sqlite")
	t.Setenv("SIGNUP_SECRET_KEY", "env-secret")
	t.Setenv("SIGNUP_SESSION_VALIDITY", "90m")
	t.Setenv("SIGNUP_SECURE_COOKIE", "true")

	cfg := defaultConfig()
	require.NoError(t, parseEnv(&cfg))

	assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "env-secret", cfg.SecretKey)
	assert.Equal(t, 90*time.Minute, cfg.SessionValidityDuration)
	assert.True(t, cfg.SecureCookie)

	// untouched
	assert.Equal(t, "auth_session", cfg.SessionCookieName)
	assert.Equal(t, "info", cfg.LogLevel)
}

func Test_parseEnv_BadValue(t *testing.T) {
	t.Setenv("SIGNUP_READ_TIMEOUT", "forever")

	cfg := defaultConfig()
	err := parseEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
