package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/metrics"
)

const defaultLogWriteTimeout = 3 * time.Second

// LogWriter records low-result searches without blocking the caller.
type LogWriter interface {
	Write(entry entity.SearchLogEntry)
}

// AsyncLogWriter hands search log entries to a bounded, non-blocking ants
// pool. Entries are dropped when every worker is busy.
type AsyncLogWriter struct {
	store        LogStore
	pool         *ants.Pool
	logger       *zap.Logger
	writeTimeout time.Duration
}

// NewAsyncLogWriter creates a writer backed by a pool of the given size.
func NewAsyncLogWriter(store LogStore, workers int, logger *zap.Logger) (*AsyncLogWriter, error) {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create search log pool: %w", err)
	}

	return &AsyncLogWriter{
		store:        store,
		pool:         pool,
		logger:       logger,
		writeTimeout: defaultLogWriteTimeout,
	}, nil
}

// Write submits entry for persistence. Write errors are logged and dropped.
func (w *AsyncLogWriter) Write(entry entity.SearchLogEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err := w.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
		defer cancel()

		if err := w.store.Append(ctx, entry); err != nil {
			w.logger.Warn("search log write failed",
				zap.String("query", entry.Query),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		metrics.SearchLogDroppedTotal.Inc()
		w.logger.Warn("search log dropped",
			zap.String("query", entry.Query),
			zap.Int("running", w.pool.Running()),
			zap.Error(err),
		)
	}
}

// Close waits up to timeout for in-flight writes and releases the pool.
func (w *AsyncLogWriter) Close(timeout time.Duration) error {
	if err := w.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("release search log pool: %w", err)
	}
	return nil
}
