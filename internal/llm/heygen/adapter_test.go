package heygen

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

func newTestAdapter(t *testing.T, url string, opts map[string]string) *Adapter {
	t.Helper()
	p, err := NewAdapter(llm.ProviderConfig{ID: llm.HeyGen, APIKey: "hg-key", BaseURL: url + "/", Options: opts})
	require.NoError(t, err)
	return p.(*Adapter)
}

func TestGenerateVideo(t *testing.T) {
	var got GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/video/generate", r.URL.Path)
		assert.Equal(t, "hg-key", r.Header.Get("X-API-KEY"))
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":null,"data":{"video_id":"vid_1"}}`))
	}))
	defer server.Close()

	out, err := newTestAdapter(t, server.URL, map[string]string{"voice": "voice_opt"}).
		GenerateVideo(context.Background(), &llm.VideoInput{Prompt: "Welcome aboard", Avatar: "Anna"})
	require.NoError(t, err)

	require.Len(t, got.VideoInputs, 1)
	assert.Equal(t, "Anna", got.VideoInputs[0].Character.AvatarID)
	assert.Equal(t, "voice_opt", got.VideoInputs[0].Voice.VoiceID)
	assert.Equal(t, "Welcome aboard", got.VideoInputs[0].Voice.InputText)
	assert.Equal(t, 1280, got.Dimension.Width)

	assert.Equal(t, "vid_1", out.JobID)
	assert.Equal(t, "processing", out.Status)
	assert.Empty(t, out.URLs)
	assert.Equal(t, "heygen/Anna", out.Model)
}

func TestGenerateVideo_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		p, _ := NewAdapter(llm.ProviderConfig{ID: llm.HeyGen})
		_, err := p.(llm.VideoProvider).GenerateVideo(context.Background(), &llm.VideoInput{Prompt: "x"})

		var cfgErr *llm.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "HEYGEN_API_KEY", cfgErr.EnvVar)
	})

	t.Run("error in body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"code":"avatar_not_found"},"data":{}}`))
		}))
		defer server.Close()

		_, err := newTestAdapter(t, server.URL, nil).GenerateVideo(context.Background(), &llm.VideoInput{Prompt: "x"})
		assert.Equal(t, llm.KindVendor, llm.Classify(err))
	})

	t.Run("no video id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":{}}`))
		}))
		defer server.Close()

		_, err := newTestAdapter(t, server.URL, nil).GenerateVideo(context.Background(), &llm.VideoInput{Prompt: "x"})
		assert.ErrorIs(t, err, llm.ErrEmptyOutput)
	})
}

func TestVideoStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/video_status.get", r.URL.Path)
		assert.Equal(t, "vid 1", r.URL.Query().Get("video_id"))
		_, _ = w.Write([]byte(`{"code":100,"data":{"id":"vid 1","status":"completed","video_url":"https://v/1.mp4","thumbnail_url":"https://v/1.jpg","duration":12.5}}`))
	}))
	defer server.Close()

	out, err := newTestAdapter(t, server.URL, nil).VideoStatus(context.Background(), "vid 1")
	require.NoError(t, err)

	assert.Equal(t, "completed", out.Status)
	assert.Equal(t, "https://v/1.mp4", out.VideoURL)
	assert.Equal(t, 12.5, out.Duration)
	assert.Equal(t, "heygen", out.Provider)
	assert.Empty(t, out.Error)
}

func TestVideoStatus_Failed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"status":"failed","error":{"detail":"internal"}}}`))
	}))
	defer server.Close()

	out, err := newTestAdapter(t, server.URL, nil).VideoStatus(context.Background(), "vid_2")
	require.NoError(t, err)
	assert.Equal(t, "failed", out.Status)
	assert.Equal(t, "video rendering failed", out.Error)
}

func TestCatalog_PartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/voices":
			_, _ = w.Write([]byte(`{"data":{"voices":[{"voice_id":"v1","name":"Ava","language":"English","gender":"female"}]}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	cat, err := newTestAdapter(t, server.URL, nil).Catalog(context.Background())
	require.NoError(t, err)

	require.Len(t, cat.Voices, 1)
	assert.Equal(t, "Ava", cat.Voices[0].Name)
	assert.NotNil(t, cat.Avatars)
	assert.Empty(t, cat.Avatars)
}
