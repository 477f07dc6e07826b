package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/oneai-gateway/internal/httpclient"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

func TestResolveCredentials(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":    "sk-1",
		"ANTHROPIC_API_KEY": "   ",
		"SUNO_API_KEY":      " suno \n",
	}
	creds := ResolveCredentials(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.True(t, creds.Present(OpenAI))
	assert.False(t, creds.Present(Anthropic), "whitespace only counts as absent")
	assert.Equal(t, "suno", creds.Key(Suno))

	all := creds.All()
	assert.Len(t, all, len(Descriptors()))
	for _, c := range all {
		assert.NotEmpty(t, c.EnvVar, c.Provider)
	}

	raw, err := json.Marshal(all)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-1")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"configuration", RequireKey(OpenAI, ""), KindConfiguration},
		{"wrapped configuration", fmt.Errorf("ctx: %w", RequireKey(Suno, "")), KindConfiguration},
		{"vendor", &VendorError{Provider: OpenAI, Operation: "chat", StatusCode: 500}, KindVendor},
		{"vendor timeout", &VendorError{Provider: OpenAI, Operation: "chat", Err: context.DeadlineExceeded}, KindTimeout},
		{"empty", fmt.Errorf("x: %w", ErrEmptyOutput), KindEmptyOutput},
		{"unsupported", ErrUnsupported, KindUnsupported},
		{"other", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestConfigurationError_Message(t *testing.T) {
	err := RequireKey(HeyGen, "")
	assert.Equal(t, "HeyGen is not configured: set HEYGEN_API_KEY", err.Error())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.NoError(t, RequireKey(HeyGen, "k"))
}

func TestNewVendorError_FromUpstream(t *testing.T) {
	upstream := &httpclient.UpstreamError{StatusCode: 503, Body: []byte(strings.Repeat("x", 600)), URL: "https://api/x?key=secret"}
	err := NewVendorError(Google, "chat", upstream)

	assert.Equal(t, 503, err.StatusCode)
	assert.Len(t, err.Body, 600)
	assert.True(t, strings.HasSuffix(err.Error(), "..."))
	assert.NotContains(t, err.Error(), "secret")
	assert.ErrorIs(t, err, upstream)
}

func TestURLList(t *testing.T) {
	tests := []struct {
		in   string
		want URLList
	}{
		{`"https://a"`, URLList{"https://a"}},
		{`["https://a","https://b"]`, URLList{"https://a", "https://b"}},
		{`""`, nil},
		{`null`, nil},
	}
	for _, tt := range tests {
		var got URLList
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	var bad URLList
	assert.Error(t, json.Unmarshal([]byte(`{"url":"x"}`), &bad))
}

func TestPattern(t *testing.T) {
	assert.True(t, Pattern{Prefix, "gpt-"}.Match("gpt-4o"))
	assert.False(t, Pattern{Prefix, "gpt-"}.Match("GPT-4o"))
	assert.True(t, Pattern{Contains, "gemini"}.Match("models/gemini-pro"))
	assert.Equal(t, "gpt-*", Pattern{Prefix, "gpt-"}.String())
	assert.Equal(t, "*gemini*", Pattern{Contains, "gemini"}.String())
}

func TestDescriptors(t *testing.T) {
	d, ok := Lookup(ElevenLabs)
	require.True(t, ok)
	assert.True(t, d.Supports(api.TaskAudio))
	assert.False(t, d.Supports(api.TaskChat))

	assert.Equal(t, "unknown", DisplayName("unknown"))
	assert.Empty(t, EnvVar("unknown"))

	list := Descriptors()
	list[0].DisplayName = "mutated"
	assert.NotEqual(t, "mutated", Descriptors()[0].DisplayName)
}

func TestProviderConfig(t *testing.T) {
	cfg := ProviderConfig{Options: map[string]string{"voice": "v1", "empty": ""}}
	assert.Equal(t, "v1", cfg.Option("voice", "d"))
	assert.Equal(t, "d", cfg.Option("empty", "d"))
	assert.Equal(t, "https://default", cfg.BaseURLOr("https://default"))
	assert.NotNil(t, cfg.Client())
}

func TestFactoryLookup(t *testing.T) {
	_, err := Get("nope")
	assert.Error(t, err)

	_, err = NewProviderFactory().CreateProvider(ProviderConfig{ID: "nope"})
	assert.Error(t, err)
}
