package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

const testWindow = 50 * time.Millisecond

type recordingInvalidator struct {
	mu       sync.Mutex
	calls    []domain.CacheScope
	failures int
	delay    time.Duration
}

func (r *recordingInvalidator) InvalidateScopes(ctx context.Context, scopes ...domain.CacheScope) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return assert.AnError
	}
	r.calls = append(r.calls, scopes...)
	return nil
}

func (r *recordingInvalidator) scopes() []domain.CacheScope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CacheScope(nil), r.calls...)
}

func setupTestWorker(t *testing.T) (*CacheWorker, *recordingInvalidator) {
	t.Helper()
	inv := &recordingInvalidator{}
	w := NewCacheWorker(inv, logger.Nop())
	w.window = testWindow
	return w, inv
}

func eventData(t *testing.T, eventType string, ts time.Time) []byte {
	t.Helper()
	data, err := json.Marshal(domain.ProductEvent{
		EventType: eventType,
		ProductID: "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b",
		Timestamp: ts,
	})
	require.NoError(t, err)
	return data
}

func TestCacheWorker_HandleEvent_ViewInvalidatesTrending(t *testing.T) {
	w, inv := setupTestWorker(t)

	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductViewed, time.Now())))
	assert.Equal(t, 1, w.PendingCount())

	assert.Eventually(t, func() bool { return w.PendingCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]domain.CacheScope{domain.ScopeTrending}, inv.scopes())
	}, time.Second, 10*time.Millisecond)
}

func TestCacheWorker_HandleEvent_WriteInvalidatesEveryScope(t *testing.T) {
	w, inv := setupTestWorker(t)

	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductUpdated, time.Now())))
	assert.Equal(t, len(domain.AllScopes), w.PendingCount())

	assert.Eventually(t, func() bool { return len(inv.scopes()) == len(domain.AllScopes) }, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, domain.AllScopes, inv.scopes())
}

func TestCacheWorker_HandleEvent_InvalidJSON(t *testing.T) {
	w, _ := setupTestWorker(t)

	err := w.HandleEvent([]byte(`{invalid json}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestCacheWorker_HandleEvent_UnknownTypeIsAcked(t *testing.T) {
	w, _ := setupTestWorker(t)

	assert.NoError(t, w.HandleEvent(eventData(t, "product.archived", time.Now())))
	assert.Equal(t, 0, w.PendingCount())
}

func TestCacheWorker_Debouncing_MultipleEvents(t *testing.T) {
	w, inv := setupTestWorker(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductSold, time.Now())))
		time.Sleep(testWindow / 5)
	}

	assert.Equal(t, 1, w.PendingCount())

	time.Sleep(testWindow * 4)

	assert.Equal(t, 0, w.PendingCount())
	assert.Equal(t, []domain.CacheScope{domain.ScopeBestSellers}, inv.scopes())
}

func TestCacheWorker_EventOrdering_IgnoreStaleEvents(t *testing.T) {
	w, inv := setupTestWorker(t)
	now := time.Now()

	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductViewed, now.Add(10*time.Second))))
	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductViewed, now)))

	assert.Equal(t, 1, w.PendingCount())

	time.Sleep(testWindow * 4)

	assert.Equal(t, []domain.CacheScope{domain.ScopeTrending}, inv.scopes())
}

func TestCacheWorker_ScopesDebounceIndependently(t *testing.T) {
	w, inv := setupTestWorker(t)

	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductViewed, time.Now())))
	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductSold, time.Now())))

	assert.Equal(t, 2, w.PendingCount())

	assert.Eventually(t, func() bool { return len(inv.scopes()) == 2 }, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []domain.CacheScope{domain.ScopeTrending, domain.ScopeBestSellers}, inv.scopes())
}

func TestCacheWorker_RetryLogic(t *testing.T) {
	w, inv := setupTestWorker(t)
	inv.failures = 2

	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductViewed, time.Now())))

	// window + 100ms + 200ms of backoff
	assert.Eventually(t, func() bool { return len(inv.scopes()) == 1 }, 2*time.Second, 20*time.Millisecond)
}

func TestCacheWorker_GracefulShutdown(t *testing.T) {
	w, inv := setupTestWorker(t)

	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductViewed, time.Now())))
	time.Sleep(testWindow * 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, w.Shutdown(ctx))
	assert.Equal(t, 0, w.PendingCount())
	assert.Equal(t, []domain.CacheScope{domain.ScopeTrending}, inv.scopes())
}

func TestCacheWorker_ShutdownCancelsPendingInvalidations(t *testing.T) {
	w, inv := setupTestWorker(t)

	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductCreated, time.Now())))
	assert.Equal(t, len(domain.AllScopes), w.PendingCount())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, w.Shutdown(ctx))
	assert.Equal(t, 0, w.PendingCount())
	assert.Empty(t, inv.scopes())

	// events after shutdown are dropped
	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductViewed, time.Now())))
	assert.Equal(t, 0, w.PendingCount())
}

func TestCacheWorker_ShutdownTimeout(t *testing.T) {
	inv := &recordingInvalidator{delay: 10 * time.Second}
	w := NewCacheWorker(inv, logger.Nop())
	w.window = testWindow

	// shields the slow invalidation from the worker context
	w.ctx = context.Background()

	require.NoError(t, w.HandleEvent(eventData(t, domain.EventProductViewed, time.Now())))
	time.Sleep(testWindow * 2)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := w.Shutdown(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}
