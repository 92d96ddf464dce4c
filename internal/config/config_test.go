package config_test

import (
	"testing"
	"time"

	"github.com/cybership/rating/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://onlinetools.ups.com", cfg.UPSBaseURL)
	assert.Equal(t, "cybership", cfg.TransactionSrc)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	assert.False(t, cfg.OTELEnabled)
	assert.False(t, cfg.UPSUseMock)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPS_CLIENT_ID", "id")
	t.Setenv("UPS_CLIENT_SECRET", "secret")
	t.Setenv("UPS_BASE_URL", "https://wwwcie.ups.com")
	t.Setenv("HTTP_TIMEOUT_MS", "5000")
	t.Setenv("UPS_USE_MOCK", "true")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://wwwcie.ups.com", cfg.UPSBaseURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout())
	assert.True(t, cfg.UPSUseMock)
}

func TestLoad_NegativeTimeoutRejected(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_MS", "-1")

	_, err := config.Load()

	assert.Error(t, err)
}

func TestUPSConfigured(t *testing.T) {
	cfg := &config.Config{}
	assert.False(t, cfg.UPSConfigured())

	cfg.UPSClientID = "id"
	assert.False(t, cfg.UPSConfigured())

	cfg.UPSClientSecret = "secret"
	assert.True(t, cfg.UPSConfigured())
}
