package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nulzo/oneai-gateway/internal/httpclient"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrEmptyOutput       = errors.New("vendor returned no content")
	ErrUnsupported       = errors.New("capability not supported by provider")
)

// ConfigurationError means the vendor key needed for a call is absent.
type ConfigurationError struct {
	Provider ProviderID
	EnvVar   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: set %s", DisplayName(e.Provider), e.EnvVar)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrMissingCredential
}

// VendorError wraps a failed upstream call. Body holds the raw vendor text
// and is meant for server logs only.
type VendorError struct {
	Provider   ProviderID
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

const maxBodyInMessage = 512

func (e *VendorError) Error() string {
	name := DisplayName(e.Provider)
	if e.StatusCode > 0 {
		body := strings.TrimSpace(e.Body)
		if len(body) > maxBodyInMessage {
			body = body[:maxBodyInMessage] + "..."
		}
		return fmt.Sprintf("%s %s failed: %d %s", name, e.Operation, e.StatusCode, body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", name, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s failed", name, e.Operation)
}

func (e *VendorError) Unwrap() error {
	return e.Err
}

// NewVendorError wraps err for the given operation, lifting the status code
// and body out of an httpclient.UpstreamError when present.
func NewVendorError(provider ProviderID, operation string, err error) *VendorError {
	ve := &VendorError{Provider: provider, Operation: operation, Err: err}
	var upstream *httpclient.UpstreamError
	if errors.As(err, &upstream) {
		ve.StatusCode = upstream.StatusCode
		ve.Body = string(upstream.Body)
	}
	return ve
}

type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindVendor        Kind = "vendor"
	KindTimeout       Kind = "timeout"
	KindEmptyOutput   Kind = "empty_output"
	KindUnsupported   Kind = "unsupported"
	KindInternal      Kind = "internal"
)

// Classify maps an adapter error onto the taxonomy. Timeouts are checked
// first since vendor errors usually wrap the context error.
func Classify(err error) Kind {
	var cfgErr *ConfigurationError
	var vendorErr *VendorError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr), errors.Is(err, ErrMissingCredential):
		return KindConfiguration
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrEmptyOutput):
		return KindEmptyOutput
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.As(err, &vendorErr):
		return KindVendor
	default:
		return KindInternal
	}
}
