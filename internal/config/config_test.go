package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 100*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "openai", cfg.OpenAI.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 50, cfg.History.MaxEntries)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
}

func TestResolveMissingCredentials(t *testing.T) {
	cfg := OpenAIConfig{APIEndpoint: "https://api.openai.com/v1"}
	_, err := cfg.Resolve(Override{})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestResolveEnvironmentDefaults(t *testing.T) {
	cfg := OpenAIConfig{
		Provider:    "openai",
		APIEndpoint: "https://api.openai.com/v1",
		APIKey:      "env-key",
		Model:       "gpt-4o-mini",
	}

	creds, err := cfg.Resolve(Override{})
	require.NoError(t, err)
	assert.Equal(t, "env-key", creds.APIKey)
	assert.Equal(t, "environment", cfg.Source(Override{}))
}

func TestResolveSessionOverrideWins(t *testing.T) {
	cfg := OpenAIConfig{
		Provider:    "openai",
		APIEndpoint: "https://api.openai.com/v1",
		APIKey:      "env-key",
		Model:       "gpt-4o-mini",
	}
	ov := Override{Endpoint: "https://proxy.internal/v1", APIKey: "session-key", Model: "gpt-4o"}

	creds, err := cfg.Resolve(ov)
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.internal/v1", creds.Endpoint)
	assert.Equal(t, "session-key", creds.APIKey)
	assert.Equal(t, "gpt-4o", creds.Model)
	assert.Equal(t, "session", cfg.Source(ov))
}

func TestResolveSessionKeyWithoutEnvironment(t *testing.T) {
	cfg := OpenAIConfig{Provider: "openai", APIEndpoint: "https://api.openai.com/v1"}

	creds, err := cfg.Resolve(Override{APIKey: "session-key"})
	require.NoError(t, err)
	assert.Equal(t, "session-key", creds.APIKey)
}
