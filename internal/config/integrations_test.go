package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setIntegrationEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("NLP_BASE_URL", "http://nlp.local")
}

func TestLoadIntegrationsDefaults(t *testing.T) {
	setIntegrationEnv(t)

	in, err := LoadIntegrations()
	require.NoError(t, err)
	assert.Equal(t, "https://api.line.me", in.LineAPIEndpoint)
	assert.Equal(t, 60*time.Second, in.NLPTimeout)
	assert.Equal(t, 30*time.Second, in.HTTPTimeout)
	assert.Equal(t, 1, in.HTTPGetRetries)
}

func TestLoadIntegrationsClampsRetries(t *testing.T) {
	setIntegrationEnv(t)
	t.Setenv("HTTP_GET_RETRIES", "5")

	in, err := LoadIntegrations()
	require.NoError(t, err)
	assert.Equal(t, 1, in.HTTPGetRetries)
}

func TestLoadIntegrationsMissingSecret(t *testing.T) {
	t.Setenv("LINE_CHANNEL_SECRET", "")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("NLP_BASE_URL", "http://nlp.local")

	_, err := LoadIntegrations()
	assert.Error(t, err)
}

func TestRateLimitNormalize(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: -1, RefillInterval: 0, TTL: time.Second}.normalize()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, time.Second, c.RefillInterval)
	assert.Equal(t, 5*time.Second, c.TTL)
}
