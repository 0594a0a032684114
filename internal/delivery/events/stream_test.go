package events

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

func TestGenerateExponentialBackoff(t *testing.T) {
	assert.Nil(t, generateExponentialBackoff(1))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, generateExponentialBackoff(3))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, generateExponentialBackoff(5))
}

func TestStreamConfig(t *testing.T) {
	cfg := streamConfig()

	assert.Equal(t, "CATALOG", cfg.Name)
	assert.Equal(t, []string{"catalog.events"}, cfg.Subjects)
	assert.Equal(t, nats.WorkQueuePolicy, cfg.Retention)
}

func TestConsumerConfig(t *testing.T) {
	cfg := consumerConfig()

	assert.Equal(t, "cache-worker", cfg.Durable)
	assert.Equal(t, nats.AckExplicitPolicy, cfg.AckPolicy)
	assert.Equal(t, domain.EventsSubject, cfg.FilterSubject)
	assert.Len(t, cfg.BackOff, MaxDeliveryAttempts-1)
}

func TestLoggingHandler(t *testing.T) {
	handle := LoggingHandler(logger.Nop())

	assert.NoError(t, handle([]byte(`{"event_type":"product.viewed","product_id":"p1","timestamp":"2024-01-01T00:00:00Z"}`)))
	assert.Error(t, handle([]byte(`not json`)))
}
