package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
)

// HTTPClient is satisfied by *http.Client and by test doubles
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// do sends an optional JSON body and returns the response for a 2xx status.
// Any other status is drained into an UpstreamError. Callers close the body.
func do(ctx context.Context, client HTTPClient, method, url string, headers map[string]string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		// transport errors print the request URL
		var urlErr *neturl.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redact(urlErr.URL)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() {
			_ = resp.Body.Close()
		}()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			URL:        url,
		}
	}
	return resp, nil
}

// SendRequest sends body as JSON and decodes a JSON answer into response,
// which may be nil.
func SendRequest(ctx context.Context, client HTTPClient, method, url string, headers map[string]string, body interface{}, response interface{}) error {
	resp, err := do(ctx, client, method, url, headers, body)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// SendRaw sends a JSON body and returns the raw response bytes along with
// the response content type. Used for vendors that answer with binary media.
func SendRaw(ctx context.Context, client HTTPClient, method, url string, headers map[string]string, body interface{}) ([]byte, string, error) {
	resp, err := do(ctx, client, method, url, headers, body)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}
	return respBody, resp.Header.Get("Content-Type"), nil
}
