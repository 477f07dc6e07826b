package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/oneai-gateway/internal/store"
	"github.com/nulzo/oneai-gateway/internal/store/model"
)

// Ingestor handles the asynchronous persistence of request records.
type Ingestor interface {
	Log(rec *model.RequestRecord)
	Start(ctx context.Context)
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	recChan   chan *model.RequestRecord
	batchSize int
	flushTime time.Duration
	done      chan struct{}
	startOnce sync.Once
	started   bool

	// mu guards stopped so Log never sends on a closed channel.
	mu      sync.RWMutex
	stopped bool
}

type IngestorOption func(*ingestor)

func WithBatchSize(n int) IngestorOption {
	return func(i *ingestor) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) IngestorOption {
	return func(i *ingestor) {
		if d > 0 {
			i.flushTime = d
		}
	}
}

func WithBuffer(n int) IngestorOption {
	return func(i *ingestor) {
		if n > 0 {
			i.recChan = make(chan *model.RequestRecord, n)
		}
	}
}

func NewIngestor(logger *zap.Logger, repo store.Repository, opts ...IngestorOption) Ingestor {
	i := &ingestor{
		logger:    logger,
		repo:      repo,
		recChan:   make(chan *model.RequestRecord, 10000),
		batchSize: 50,
		flushTime: 5 * time.Second,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Log never blocks the request path. When the buffer is full, or the
// ingestor has stopped, the record is dropped.
func (i *ingestor) Log(rec *model.RequestRecord) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.stopped {
		i.logger.Warn("Analytics ingestor stopped, dropping record", zap.String("request_id", rec.ID))
		return
	}
	select {
	case i.recChan <- rec:
	default:
		i.logger.Warn("Analytics buffer full, dropping record", zap.String("request_id", rec.ID))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	i.startOnce.Do(func() {
		i.started = true
		go i.worker(ctx)
	})
}

// Stop flushes pending records and waits for the worker to exit. Records
// logged afterwards are dropped.
func (i *ingestor) Stop() {
	i.mu.Lock()
	if !i.stopped {
		i.stopped = true
		close(i.recChan)
	}
	i.mu.Unlock()
	if i.started {
		<-i.done
	}
}

func (i *ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*model.RequestRecord, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		err := i.repo.WithTx(context.Background(), func(repo store.Repository) error {
			for _, rec := range batch {
				if err := repo.Requests().Log(context.Background(), rec); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			i.logger.Error("Failed to persist request batch", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-i.recChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			// drain what is already buffered
			for {
				select {
				case rec, ok := <-i.recChan:
					if !ok {
						flush()
						return
					}
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}
