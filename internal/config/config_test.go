package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/oneai-gateway/internal/llm"
)

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "test")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("GATEWAY_ADAPTER_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Env)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Gateway.AdapterTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestDecode_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Gateway.AdapterTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Gateway.CatalogTTL)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestDecode_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"non numeric port", "server.port", "http"},
		{"unknown env", "server.env", "staging"},
		{"zero rate", "rate_limit.requests_per_second", 0},
		{"negative timeout", "gateway.adapter_timeout", -time.Second},
		{"bad premium url", "gateway.premium_base_url", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			v.Set(tt.key, tt.val)

			_, err := decode(v)
			assert.Error(t, err)
		})
	}
}

func TestDecode_ResolvesCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "  tg-key  ")
	t.Setenv("OPENAI_API_KEY", "")

	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.True(t, cfg.Credentials.Present(llm.Together))
	assert.Equal(t, "tg-key", cfg.Credentials.Key(llm.Together))
	assert.False(t, cfg.Credentials.Present(llm.OpenAI))
}

func TestGatewayConfig_BaseURL(t *testing.T) {
	g := GatewayConfig{
		PremiumBaseURL: "https://premium.example.com/v1",
		BaseURLs:       map[string]string{"openai": "http://localhost:9999/v1"},
	}

	assert.Equal(t, "http://localhost:9999/v1", g.BaseURL(llm.OpenAI))
	assert.Equal(t, "https://premium.example.com/v1", g.BaseURL(llm.AIML))
	assert.Empty(t, g.BaseURL(llm.Anthropic))
}
