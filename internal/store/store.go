package store

import (
	"context"
	"errors"
	"time"

	"github.com/nulzo/oneai-gateway/internal/store/model"
)

type contextKey string

const (
	ContextKeyAPIKey  contextKey = "api_key"
	ContextKeyAppName contextKey = "app_name"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidColumn = errors.New("column cannot be aggregated")
)

// Repository is the main contract for the data layer.
type Repository interface {
	APIKeys() APIKeyRepository
	Requests() RequestRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type APIKeyRepository interface {
	// GetByHash retrieves an active key by its hashed value (for auth).
	GetByHash(ctx context.Context, hash string) (*model.APIKey, error)
	// Create issues a new API key.
	Create(ctx context.Context, key *model.APIKey) error
	// UpdateUsage stamps last_used_at.
	UpdateUsage(ctx context.Context, id string) error
}

// RequestFilter narrows Count and Sum. Zero fields match everything.
type RequestFilter struct {
	Task     string
	Provider string
	Success  *bool
	Degraded *bool
	Since    time.Time
}

type RequestRepository interface {
	// Log stores a returned request.
	Log(ctx context.Context, rec *model.RequestRecord) error
	GetByID(ctx context.Context, id string) (*model.RequestRecord, error)
	// Recent returns the last N records, newest first.
	Recent(ctx context.Context, limit int) ([]model.RequestRecord, error)
	Count(ctx context.Context, f RequestFilter) (int64, error)
	// Sum totals one of input_tokens, output_tokens, cost or latency_ms.
	Sum(ctx context.Context, column string, f RequestFilter) (float64, error)
	// DailyStats returns aggregated stats grouped by day.
	DailyStats(ctx context.Context, days int) ([]model.DailyStats, error)
}

// Bool is a helper for building filters.
func Bool(v bool) *bool {
	return &v
}
