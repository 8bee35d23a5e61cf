package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, "http://localhost:8080/", cfg.ServerBaseURL)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.NotEmpty(t, cfg.EmailFrom)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("ENDPOINT_ADDR_HTTP", ":9090")
	t.Setenv("DATABASE_DSN", "postgres://test")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "7")
	t.Setenv("ACCESS_TOKEN_VALIDITY", "45m")
	t.Setenv("SMTP_HOST", "mail.example.com")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9090", cfg.EndpointAddrHTTP)
	assert.Equal(t, "postgres://test", cfg.DatabaseDSN)
	assert.Equal(t, 7, cfg.MaxLoginAttempts)
	assert.Equal(t, 45*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, "mail.example.com", cfg.SMTPHost)
	// Untouched variables keep their defaults.
	assert.Equal(t, "secretKey", cfg.SecretKey)
}

func TestParseEnv_IgnoresUnparseableNumbers(t *testing.T) {
	t.Setenv("MAX_LOGIN_ATTEMPTS", "lots")
	t.Setenv("ACCESS_TOKEN_VALIDITY", "soon")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
}

func TestJsonConfig_Unmarshal(t *testing.T) {
	raw := `{
		"endpoint_addr_http": ":7070",
		"database_dsn": "postgres://json",
		"secret_key": "json-secret",
		"access_token_validity_duration": "2h",
		"max_login_attempts": 4,
		"server_base_url": "https://accounts.example.com/"
	}`

	c := &JsonConfig{}
	require.NoError(t, json.Unmarshal([]byte(raw), c))

	assert.Equal(t, ":7070", c.EndpointAddrHTTP)
	assert.Equal(t, "postgres://json", c.DatabaseDSN)
	assert.Equal(t, 2*time.Hour, c.AccessTokenValidityDuration.Duration)
	assert.Equal(t, 4, c.MaxLoginAttempts)
	assert.Equal(t, "https://accounts.example.com/", c.ServerBaseURL)
}
