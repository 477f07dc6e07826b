package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v", r.Header.Get("X-Custom"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := SendRequest(context.Background(), server.Client(), http.MethodPost, server.URL, map[string]string{"X-Custom": "v"}, map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestSendRequest_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	err := SendRequest(context.Background(), server.Client(), http.MethodGet, server.URL+"/x?key=secret", nil, nil, nil)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
	assert.Equal(t, "bad gateway", string(upstream.Body))
	assert.NotContains(t, upstream.Error(), "secret")
}

func TestSendRequest_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]interface{}
	err := SendRequest(context.Background(), server.Client(), http.MethodGet, server.URL, nil, nil, &out)
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestSendRequest_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SendRequest(ctx, http.DefaultClient, http.MethodGet, "http://127.0.0.1:1", nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendRequest_TransportErrorRedactsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL + "/v1/run?key=secret-value"
	server.Close()

	err := SendRequest(context.Background(), http.DefaultClient, http.MethodPost, target, nil, map[string]string{"a": "b"}, nil)

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-value")
	assert.Contains(t, err.Error(), "/v1/run")
}

func TestSendRequest_TimeoutStillUnwraps(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := SendRequest(ctx, http.DefaultClient, http.MethodGet, server.URL+"?token=abc", nil, nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, err.Error(), "token=abc")
}

func TestSendRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte{0x52, 0x49, 0x46, 0x46})
	}))
	defer server.Close()

	body, contentType, err := SendRaw(context.Background(), server.Client(), http.MethodPost, server.URL, nil, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", contentType)
	assert.Equal(t, []byte("RIFF"), body)
}
