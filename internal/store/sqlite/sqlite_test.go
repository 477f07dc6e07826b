package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/oneai-gateway/internal/store"
	"github.com/nulzo/oneai-gateway/internal/store/model"
)

func newTestRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestAPIKeys(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now()
	active := &model.APIKey{ID: "k1", UserID: "u1", Name: "active", KeyHash: "hash-1", KeyPrefix: "sk-oneai-", IsActive: true, CreatedAt: now, UpdatedAt: now}
	revoked := &model.APIKey{ID: "k2", UserID: "u1", Name: "revoked", KeyHash: "hash-2", IsActive: false, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.APIKeys().Create(ctx, active))
	require.NoError(t, repo.APIKeys().Create(ctx, revoked))

	got, err := repo.APIKeys().GetByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "k1", got.ID)
	assert.False(t, got.LastUsedAt.Valid)

	_, err = repo.APIKeys().GetByHash(ctx, "hash-2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.APIKeys().UpdateUsage(ctx, "k1"))
	got, err = repo.APIKeys().GetByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, got.LastUsedAt.Valid)
}

func TestRequests_LogAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := &model.RequestRecord{
		ID:           "req_1",
		Task:         "chat",
		ProviderID:   "openai",
		Model:        "gpt-4o-mini",
		Success:      true,
		InputTokens:  12,
		OutputTokens: 8,
		Cost:         0.002,
		LatencyMS:    350,
	}
	require.NoError(t, repo.Requests().Log(ctx, rec))
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := repo.Requests().GetByID(ctx, "req_1")
	require.NoError(t, err)
	assert.Equal(t, "openai", got.ProviderID)
	assert.Equal(t, 12, got.InputTokens)
	assert.True(t, got.Success)

	_, err = repo.Requests().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func seed(t *testing.T, repo store.Repository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	recs := []model.RequestRecord{
		{ID: "a", Task: "chat", ProviderID: "openai", Success: true, InputTokens: 10, OutputTokens: 5, Cost: 0.01, LatencyMS: 100, CreatedAt: now.Add(-3 * time.Minute)},
		{ID: "b", Task: "chat", ProviderID: "anthropic", Success: false, ErrorKind: "vendor", LatencyMS: 300, CreatedAt: now.Add(-2 * time.Minute)},
		{ID: "c", Task: "video", ProviderID: "demo", Success: true, Degraded: true, ErrorKind: "configuration", LatencyMS: 5, CreatedAt: now.Add(-time.Minute)},
		{ID: "old", Task: "chat", ProviderID: "openai", Success: true, InputTokens: 100, CreatedAt: now.AddDate(0, 0, -40)},
	}
	for i := range recs {
		require.NoError(t, repo.Requests().Log(ctx, &recs[i]))
	}
}

func TestRequests_Recent(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)

	recs, err := repo.Requests().Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "c", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
}

func TestRequests_CountAndSum(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)
	ctx := context.Background()
	since := time.Now().AddDate(0, 0, -1)

	tests := []struct {
		name   string
		filter store.RequestFilter
		want   int64
	}{
		{"all", store.RequestFilter{}, 4},
		{"since", store.RequestFilter{Since: since}, 3},
		{"chat", store.RequestFilter{Task: "chat", Since: since}, 2},
		{"provider", store.RequestFilter{Provider: "openai"}, 2},
		{"failed", store.RequestFilter{Success: store.Bool(false)}, 1},
		{"degraded", store.RequestFilter{Degraded: store.Bool(true)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := repo.Requests().Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	tokens, err := repo.Requests().Sum(ctx, "input_tokens", store.RequestFilter{Since: since})
	require.NoError(t, err)
	assert.Equal(t, float64(10), tokens)

	latency, err := repo.Requests().Sum(ctx, "latency_ms", store.RequestFilter{Task: "video"})
	require.NoError(t, err)
	assert.Equal(t, float64(5), latency)

	_, err = repo.Requests().Sum(ctx, "id; DROP TABLE request_records", store.RequestFilter{})
	assert.True(t, errors.Is(err, store.ErrInvalidColumn))
}

func TestRequests_DailyStats(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo)

	stats, err := repo.Requests().DailyStats(context.Background(), 7)
	require.NoError(t, err)

	var total int
	for _, s := range stats {
		total += s.TotalRequests
		assert.NotEmpty(t, s.Date)
	}
	assert.Equal(t, 3, total)
}

func TestWithTx_Rollback(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(tx store.Repository) error {
		if err := tx.Requests().Log(ctx, &model.RequestRecord{ID: "tx1", Task: "chat"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.Requests().GetByID(ctx, "tx1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = repo.WithTx(ctx, func(tx store.Repository) error {
		return tx.Requests().Log(ctx, &model.RequestRecord{ID: "tx2", Task: "chat"})
	})
	require.NoError(t, err)

	_, err = repo.Requests().GetByID(ctx, "tx2")
	assert.NoError(t, err)
}

func TestPingContext(t *testing.T) {
	repo := newTestRepo(t)
	pinger, ok := repo.(interface{ PingContext(context.Context) error })
	require.True(t, ok)
	assert.NoError(t, pinger.PingContext(context.Background()))
}

func TestWithPragmas(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"oneai.db", "oneai.db?_busy_timeout=5000&_journal_mode=WAL"},
		{"file:oneai.db?cache=shared", "file:oneai.db?cache=shared&_busy_timeout=5000&_journal_mode=WAL"},
		{"oneai.db?_busy_timeout=100", "oneai.db?_busy_timeout=100&_journal_mode=WAL"},
		{"oneai.db?_busy_timeout=1&_journal_mode=DELETE", "oneai.db?_busy_timeout=1&_journal_mode=DELETE"},
		{"file::memory:?cache=shared", "file::memory:?cache=shared"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, withPragmas(tt.in), tt.in)
	}
}
