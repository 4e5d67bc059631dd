package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef-console"

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("GATEWAY_BASE_URL", "https://api.marketplace.test/v1/")
	t.Setenv("SESSION_SEAL_KEY", "")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.marketplace.test/v1", cfg.GatewayBaseURL)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 12*time.Hour, cfg.TokenExpires)
	assert.Equal(t, time.UTC, cfg.TimeZone)
	assert.Equal(t, testSecret[:32], string(cfg.SessionSealKey[:]))
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	key := strings.Repeat("k", 32)
	t.Setenv("SESSION_SEAL_KEY", base64.StdEncoding.EncodeToString([]byte(key)))
	t.Setenv("GATEWAY_TIMEOUT_SECONDS", "30")
	t.Setenv("JWT_TTL_HOURS", "not-a-number")
	t.Setenv("APP_TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 12*time.Hour, cfg.TokenExpires)
	assert.Equal(t, key, string(cfg.SessionSealKey[:]))
	assert.Equal(t, "Asia/Kolkata", cfg.TimeZone.String())
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("GATEWAY_BASE_URL", "")
	_, err := Load()
	assert.ErrorContains(t, err, "GATEWAY_BASE_URL")

	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestParseSealKey(t *testing.T) {
	_, err := parseSealKey("", "short")
	assert.Error(t, err)

	_, err = parseSealKey("abcd", testSecret)
	assert.Error(t, err)

	key, err := parseSealKey(strings.Repeat("0f", 32), "")
	require.NoError(t, err)
	assert.Equal(t, byte(0x0f), key[31])
}
