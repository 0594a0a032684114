package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

const (
	// Events for the same scope within this window collapse into one invalidation
	debounceWindow = 1 * time.Second

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	attemptTimeout = 5 * time.Second
)

// Invalidator drops cached catalog reads
type Invalidator interface {
	InvalidateScopes(ctx context.Context, scopes ...domain.CacheScope) error
}

// CacheWorker turns product events into debounced cache invalidations
type CacheWorker struct {
	invalidator Invalidator
	logger      *logger.Logger
	window      time.Duration

	mu         sync.Mutex
	pending    map[domain.CacheScope]*pendingInvalidation
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

type pendingInvalidation struct {
	timestamp time.Time
	timer     *time.Timer
}

// NewCacheWorker creates a new cache worker
func NewCacheWorker(invalidator Invalidator, logger *logger.Logger) *CacheWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &CacheWorker{
		invalidator: invalidator,
		logger:      logger,
		window:      debounceWindow,
		pending:     make(map[domain.CacheScope]*pendingInvalidation),
		shutdownCh:  make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// HandleEvent schedules invalidation of every scope the event makes stale
func (w *CacheWorker) HandleEvent(data []byte) error {
	var event domain.ProductEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal product event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	scopes := domain.ScopesFor(event.EventType)
	if len(scopes) == 0 {
		w.logger.WithFields(map[string]any{
			"event_type": event.EventType,
		}).Warn("Ignoring event with unknown type")
		return nil
	}

	w.logger.WithFields(map[string]any{
		"event_type": event.EventType,
		"product_id": event.ProductID,
		"timestamp":  event.Timestamp,
	}).Debug("Received product event")

	for _, scope := range scopes {
		w.schedule(scope, event.Timestamp)
	}
	return nil
}

// schedule restarts the debounce timer of a scope
func (w *CacheWorker) schedule(scope domain.CacheScope, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pending[scope]
	if found {
		// An older event is already covered by the pending invalidation
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"scope":       scope,
				"existing_ts": existing.timestamp,
				"event_ts":    timestamp,
			}).Debug("Ignoring stale event")
			return
		}

		// Stop returns false once the timer fired; the callback owns the wg slot then
		if !existing.timer.Stop() {
			w.wg.Add(1)
		}
	} else {
		w.wg.Add(1)
	}

	p := &pendingInvalidation{timestamp: timestamp}
	p.timer = time.AfterFunc(w.window, func() {
		w.invalidate(scope, p)
	})
	w.pending[scope] = p
}

func (w *CacheWorker) invalidate(scope domain.CacheScope, p *pendingInvalidation) {
	defer w.wg.Done()

	w.mu.Lock()
	if w.pending[scope] == p {
		delete(w.pending, scope)
	}
	w.mu.Unlock()

	log := w.logger.With("scope", scope)

	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			log.WithFields(map[string]any{
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying cache invalidation")

			select {
			case <-time.After(backoff):
			case <-w.ctx.Done():
				log.Info("Worker context cancelled, aborting retry")
				return
			}

			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(w.ctx, attemptTimeout)
		err := w.invalidator.InvalidateScopes(ctx, scope)
		cancel()

		if err == nil {
			log.Info("Cache scope invalidated")
			return
		}

		lastErr = err
		log.With("attempt", attempt+1).Error("Failed to invalidate cache scope", err)
	}

	log.With("max_retries", maxRetries).Error("Cache invalidation failed after all retries", lastErr)
}

// Shutdown drops pending invalidations and waits for in-flight ones.
// Dropped scopes expire through their TTL.
func (w *CacheWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down cache worker...")

	w.mu.Lock()
	close(w.shutdownCh)
	cancelled := 0
	for scope, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
			cancelled++
		}
		delete(w.pending, scope)
	}
	w.mu.Unlock()

	w.cancel()

	w.logger.WithFields(map[string]any{
		"cancelled_invalidations": cancelled,
	}).Info("Cancelled pending invalidations")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight invalidations completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// PendingCount returns the number of scopes waiting for invalidation
func (w *CacheWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
