package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/oneai-gateway/internal/llm"
)

func TestShape_SystemAndRoles(t *testing.T) {
	temp := 0.7
	in := &llm.ChatInput{
		Messages: []llm.Message{
			{Role: "system", Content: "Be brief."},
			{Role: "user", Content: "Hi"},
			{Role: "assistant", Content: "Hello"},
			{Role: "user", Content: "How are you?"},
		},
		MaxTokens:   64,
		Temperature: &temp,
	}

	gr := Shape(in)

	require.NotNil(t, gr.SystemInstruction)
	assert.Equal(t, "Be brief.", gr.SystemInstruction.Parts[0].Text)
	require.Len(t, gr.Contents, 3)
	assert.Equal(t, "user", gr.Contents[0].Role)
	assert.Equal(t, "model", gr.Contents[1].Role)
	assert.Equal(t, "user", gr.Contents[2].Role)
	require.NotNil(t, gr.GenerationConfig)
	assert.Equal(t, 64, gr.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, &temp, gr.GenerationConfig.Temperature)
}

func TestShape_NoGenerationConfigWhenUnset(t *testing.T) {
	gr := Shape(&llm.ChatInput{Messages: []llm.Message{{Role: "user", Content: "Hi"}}})
	assert.Nil(t, gr.GenerationConfig)
	assert.Nil(t, gr.SystemInstruction)
}

func TestChat(t *testing.T) {
	var gotPath, gotKey, gotQuery string
	var gotBody GeminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotQuery = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Hel"}, {"text": "lo"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 2}
		}`))
	}))
	defer srv.Close()

	p, err := NewAdapter(llm.ProviderConfig{ID: llm.Google, APIKey: "g-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := p.(llm.ChatProvider).Chat(context.Background(), &llm.ChatInput{
		Model:    "google/gemini-1.5-pro",
		Messages: []llm.Message{{Role: "user", Content: "Hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/models/gemini-1.5-pro:generateContent", gotPath)
	assert.Equal(t, "g-key", gotKey)
	assert.Empty(t, gotQuery)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "Hello", out.Content)
	assert.Equal(t, "STOP", out.FinishReason)
	assert.Equal(t, 4, *out.Usage.PromptTokens)
	assert.Equal(t, 2, *out.Usage.CompletionTokens)
}

func TestChat_DefaultModel(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	p, _ := NewAdapter(llm.ProviderConfig{ID: llm.Google, APIKey: "g-key", BaseURL: srv.URL})
	_, err := p.(llm.ChatProvider).Chat(context.Background(), &llm.ChatInput{Messages: []llm.Message{{Role: "user", Content: "Hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "/models/"+defaultModel+":generateContent", gotPath)
}

func TestChat_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		p, _ := NewAdapter(llm.ProviderConfig{ID: llm.Google})
		_, err := p.(llm.ChatProvider).Chat(context.Background(), &llm.ChatInput{})

		var cfgErr *llm.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "GOOGLE_API_KEY", cfgErr.EnvVar)
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
		}))
		defer srv.Close()

		p, _ := NewAdapter(llm.ProviderConfig{ID: llm.Google, APIKey: "g-key", BaseURL: srv.URL})
		_, err := p.(llm.ChatProvider).Chat(context.Background(), &llm.ChatInput{})

		var vendorErr *llm.VendorError
		require.True(t, errors.As(err, &vendorErr))
		assert.Equal(t, http.StatusTooManyRequests, vendorErr.StatusCode)
		assert.Contains(t, vendorErr.Body, "quota")
		assert.NotContains(t, vendorErr.Error(), "g-key")
	})

	t.Run("transport failure keeps key out of error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		baseURL := srv.URL
		srv.Close()

		p, _ := NewAdapter(llm.ProviderConfig{ID: llm.Google, APIKey: "SECRET-GOOGLE-KEY", BaseURL: baseURL})
		_, err := p.(llm.ChatProvider).Chat(context.Background(), &llm.ChatInput{
			Messages: []llm.Message{{Role: "user", Content: "Hi"}},
		})

		require.Error(t, err)
		assert.Equal(t, llm.KindVendor, llm.Classify(err))
		assert.NotContains(t, err.Error(), "SECRET-GOOGLE-KEY")
	})

	t.Run("no candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		p, _ := NewAdapter(llm.ProviderConfig{ID: llm.Google, APIKey: "g-key", BaseURL: srv.URL})
		_, err := p.(llm.ChatProvider).Chat(context.Background(), &llm.ChatInput{})
		assert.ErrorIs(t, err, llm.ErrEmptyOutput)
	})
}
