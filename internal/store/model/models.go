package model

import (
	"database/sql"
	"time"
)

// APIKey is the credential used to access the API.
type APIKey struct {
	ID         string       `db:"id" json:"id"`
	UserID     string       `db:"user_id" json:"user_id"`
	Name       string       `db:"name" json:"name"`
	KeyHash    string       `db:"key_hash" json:"-"`            // Never return hash
	KeyPrefix  string       `db:"key_prefix" json:"key_prefix"` // Display only
	IsActive   bool         `db:"is_active" json:"is_active"`
	LastUsedAt sql.NullTime `db:"last_used_at" json:"last_used_at,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// RequestRecord captures one returned capability envelope.
type RequestRecord struct {
	ID           string    `db:"id" json:"id"`
	Task         string    `db:"task" json:"task"`
	ProviderID   string    `db:"provider_id" json:"provider_id"`
	ModelHint    string    `db:"model_hint" json:"model_hint"`
	Model        string    `db:"model" json:"model"`
	Success      bool      `db:"success" json:"success"`
	Degraded     bool      `db:"degraded" json:"degraded"`
	ErrorKind    string    `db:"error_kind" json:"error_kind,omitempty"`
	InputTokens  int       `db:"input_tokens" json:"input_tokens"`
	OutputTokens int       `db:"output_tokens" json:"output_tokens"`
	Cost         float64   `db:"cost" json:"cost"`
	LatencyMS    int64     `db:"latency_ms" json:"latency_ms"`
	UserID       string    `db:"user_id" json:"user_id"`
	APIKeyID     string    `db:"api_key_id" json:"api_key_id"`
	AppName      string    `db:"app_name" json:"app_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DailyStats represents aggregated usage data for a specific day.
type DailyStats struct {
	Date           string  `db:"date" json:"date"`
	TotalRequests  int     `db:"total_requests" json:"total_requests"`
	InputTokens    int     `db:"input_tokens" json:"input_tokens"`
	OutputTokens   int     `db:"output_tokens" json:"output_tokens"`
	TotalCost      float64 `db:"total_cost" json:"total_cost"`
	AverageLatency float64 `db:"avg_latency" json:"avg_latency"`
}
