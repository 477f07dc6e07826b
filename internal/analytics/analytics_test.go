package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/oneai-gateway/internal/store"
	"github.com/nulzo/oneai-gateway/internal/store/cache/memory"
	"github.com/nulzo/oneai-gateway/internal/store/model"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

type mockRequests struct {
	mock.Mock
}

func (m *mockRequests) Log(ctx context.Context, rec *model.RequestRecord) error {
	return m.Called(rec).Error(0)
}

func (m *mockRequests) GetByID(ctx context.Context, id string) (*model.RequestRecord, error) {
	args := m.Called(id)
	rec, _ := args.Get(0).(*model.RequestRecord)
	return rec, args.Error(1)
}

func (m *mockRequests) Recent(ctx context.Context, limit int) ([]model.RequestRecord, error) {
	args := m.Called(limit)
	recs, _ := args.Get(0).([]model.RequestRecord)
	return recs, args.Error(1)
}

func (m *mockRequests) Count(ctx context.Context, f store.RequestFilter) (int64, error) {
	args := m.Called(f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRequests) Sum(ctx context.Context, column string, f store.RequestFilter) (float64, error) {
	args := m.Called(column, f)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockRequests) DailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	args := m.Called(days)
	stats, _ := args.Get(0).([]model.DailyStats)
	return stats, args.Error(1)
}

type fakeRepo struct {
	requests *mockRequests
}

func (r *fakeRepo) APIKeys() store.APIKeyRepository   { return nil }
func (r *fakeRepo) Requests() store.RequestRepository { return r.requests }
func (r *fakeRepo) Close() error                      { return nil }

func (r *fakeRepo) WithTx(ctx context.Context, fn func(store.Repository) error) error {
	return fn(r)
}

func expectOverview(m *mockRequests, failed error) {
	m.On("Count", store.RequestFilter{}).Return(int64(40), nil)
	m.On("Count", store.RequestFilter{Success: store.Bool(true), Degraded: store.Bool(false)}).Return(int64(30), nil)
	m.On("Count", store.RequestFilter{Degraded: store.Bool(true)}).Return(int64(6), nil)
	m.On("Count", store.RequestFilter{Success: store.Bool(false)}).Return(int64(4), failed)
	m.On("Count", store.RequestFilter{Task: "chat"}).Return(int64(25), nil)
	m.On("Count", store.RequestFilter{Task: "image"}).Return(int64(9), nil)
	m.On("Sum", "input_tokens", store.RequestFilter{}).Return(float64(1000), nil)
	m.On("Sum", "output_tokens", store.RequestFilter{}).Return(float64(500), nil)
}

func TestOverview_AllAggregates(t *testing.T) {
	requests := &mockRequests{}
	expectOverview(requests, nil)

	svc := NewService(zap.NewNop(), &fakeRepo{requests: requests}, nil)
	out, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(40), out.TotalRequests)
	assert.Equal(t, int64(30), out.Successful)
	assert.Equal(t, int64(6), out.Degraded)
	assert.Equal(t, int64(4), out.Failed)
	assert.Equal(t, int64(25), out.ChatRequests)
	assert.Equal(t, int64(9), out.ImageRequests)
	assert.Equal(t, int64(1000), out.InputTokens)
	assert.Equal(t, int64(500), out.OutputTokens)
	assert.InDelta(t, 0.2, out.EstimatedCost, 1e-9)
	requests.AssertExpectations(t)
}

func TestOverview_CostMatchesRequestEstimate(t *testing.T) {
	requests := &mockRequests{}
	requests.On("Count", mock.Anything).Return(int64(0), nil)
	requests.On("Sum", "input_tokens", store.RequestFilter{}).Return(float64(3), nil)
	requests.On("Sum", "output_tokens", store.RequestFilter{}).Return(float64(7), nil)

	svc := NewService(zap.NewNop(), &fakeRepo{requests: requests}, nil)
	out, err := svc.Overview(context.Background())
	require.NoError(t, err)

	want := api.EstimateCost(api.Usage{InputTokens: 3, OutputTokens: 7})
	assert.Equal(t, want, out.EstimatedCost)
	assert.Equal(t, 0.0017, out.EstimatedCost)
}

func TestOverview_FailingAggregateDefaultsToZero(t *testing.T) {
	requests := &mockRequests{}
	expectOverview(requests, errors.New("database is locked"))

	svc := NewService(zap.NewNop(), &fakeRepo{requests: requests}, nil)
	out, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), out.Failed)
	assert.Equal(t, int64(40), out.TotalRequests)
	assert.Equal(t, int64(30), out.Successful)
	assert.Equal(t, int64(6), out.Degraded)
	assert.Equal(t, int64(25), out.ChatRequests)
	assert.Equal(t, int64(1000), out.InputTokens)
}

func TestOverview_IsCached(t *testing.T) {
	requests := &mockRequests{}
	expectOverview(requests, nil)
	c := memory.NewMemoryCache()

	svc := NewService(zap.NewNop(), &fakeRepo{requests: requests}, c)
	first, err := svc.Overview(context.Background())
	require.NoError(t, err)
	second, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.TotalRequests, second.TotalRequests)
	requests.AssertNumberOfCalls(t, "Count", 6)
	requests.AssertNumberOfCalls(t, "Sum", 2)

	var cached api.DashboardOverview
	require.NoError(t, c.Get(context.Background(), overviewCacheKey, &cached))
}

func TestGetUsageOverview_DefaultsToAWeek(t *testing.T) {
	requests := &mockRequests{}
	requests.On("DailyStats", 7).Return([]model.DailyStats{{Date: "2026-10-14", TotalRequests: 3}}, nil)

	svc := NewService(zap.NewNop(), &fakeRepo{requests: requests}, nil)
	stats, err := svc.GetUsageOverview(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].TotalRequests)
}

func TestIngestor_FlushesOnStop(t *testing.T) {
	requests := &mockRequests{}
	requests.On("Log", mock.Anything).Return(nil)

	ing := NewIngestor(zap.NewNop(), &fakeRepo{requests: requests}, WithBatchSize(2), WithFlushInterval(time.Hour))
	ing.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		ing.Log(&model.RequestRecord{ID: id})
	}
	ing.Stop()

	requests.AssertNumberOfCalls(t, "Log", 3)
}

func TestIngestor_DropsWhenBufferFull(t *testing.T) {
	requests := &mockRequests{}
	requests.On("Log", mock.Anything).Return(nil)

	ing := NewIngestor(zap.NewNop(), &fakeRepo{requests: requests}, WithBuffer(1))
	ing.Log(&model.RequestRecord{ID: "kept"})
	ing.Log(&model.RequestRecord{ID: "dropped"})

	ing.Start(context.Background())
	ing.Stop()

	requests.AssertNumberOfCalls(t, "Log", 1)
}

func TestIngestor_StopWithoutStart(t *testing.T) {
	ing := NewIngestor(zap.NewNop(), &fakeRepo{requests: &mockRequests{}})

	done := make(chan struct{})
	go func() {
		ing.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running worker")
	}
}

func TestIngestor_LogAfterStopIsDropped(t *testing.T) {
	requests := &mockRequests{}
	requests.On("Log", mock.Anything).Return(nil)

	ing := NewIngestor(zap.NewNop(), &fakeRepo{requests: requests})
	ing.Start(context.Background())
	ing.Log(&model.RequestRecord{ID: "before"})
	ing.Stop()

	assert.NotPanics(t, func() {
		ing.Log(&model.RequestRecord{ID: "late"})
	})
	ing.Stop()

	requests.AssertNumberOfCalls(t, "Log", 1)
}

func TestIngestor_ConcurrentLogDuringStop(t *testing.T) {
	requests := &mockRequests{}
	requests.On("Log", mock.Anything).Return(nil)

	ing := NewIngestor(zap.NewNop(), &fakeRepo{requests: requests}, WithFlushInterval(time.Millisecond))
	ing.Start(context.Background())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				ing.Log(&model.RequestRecord{ID: "r"})
			}
		}()
	}
	ing.Stop()
	wg.Wait()
}
