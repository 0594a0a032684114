package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

const (
	// StreamName is the JetStream stream for catalog events
	StreamName = "CATALOG"

	// ConsumerName is the durable consumer of the cache worker
	ConsumerName = "cache-worker"

	// MaxDeliveryAttempts bounds redeliveries. A dropped event only delays
	// invalidation until the next event or the cache TTL.
	MaxDeliveryAttempts = 3

	// AckWait is how long to wait for acknowledgment before redelivery
	AckWait = 30 * time.Second

	streamMaxAge = time.Hour
)

// StreamConfig holds the JetStream stream configuration
type StreamConfig struct {
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewStreamConfig creates a new stream configuration helper
func NewStreamConfig(js nats.JetStreamContext, log *logger.Logger) *StreamConfig {
	return &StreamConfig{
		js:     js,
		logger: log,
	}
}

// generateExponentialBackoff returns 1s, 2s, 4s, ... for every redelivery after the first
func generateExponentialBackoff(maxDeliveryAttempts int) []time.Duration {
	if maxDeliveryAttempts <= 1 {
		return nil
	}

	backoff := make([]time.Duration, maxDeliveryAttempts-1)
	for i := range backoff {
		backoff[i] = time.Duration(1<<i) * time.Second
	}
	return backoff
}

func streamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{domain.EventsSubject},
		Retention:   nats.WorkQueuePolicy,
		Storage:     nats.FileStorage,
		Replicas:    1,
		MaxAge:      streamMaxAge,
		Discard:     nats.DiscardOld,
		Description: "Catalog product events for cache invalidation",
	}
}

func consumerConfig() *nats.ConsumerConfig {
	return &nats.ConsumerConfig{
		Durable:       ConsumerName,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       AckWait,
		MaxDeliver:    MaxDeliveryAttempts,
		FilterSubject: domain.EventsSubject,
		BackOff:       generateExponentialBackoff(MaxDeliveryAttempts),
		Description:   "Cache worker consumer for catalog events",
	}
}

// EnsureStream creates the catalog stream when it does not exist.
// Work-queue retention deletes a message once it is acked.
func (s *StreamConfig) EnsureStream() error {
	stream, err := s.js.StreamInfo(StreamName)

	if errors.Is(err, nats.ErrStreamNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"subjects": domain.EventsSubject,
		}).Info("Creating JetStream stream")

		if _, err := s.js.AddStream(streamConfig()); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}

		s.logger.Info("JetStream stream created successfully")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"stream":   stream.Config.Name,
		"messages": stream.State.Msgs,
		"bytes":    stream.State.Bytes,
	}).Info("JetStream stream already exists")

	return nil
}

// EnsureConsumer creates the durable cache worker consumer when it does not exist
func (s *StreamConfig) EnsureConsumer() error {
	consumerInfo, err := s.js.ConsumerInfo(StreamName, ConsumerName)

	if errors.Is(err, nats.ErrConsumerNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"consumer": ConsumerName,
		}).Info("Creating JetStream consumer")

		if _, err := s.js.AddConsumer(StreamName, consumerConfig()); err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}

		s.logger.Info("JetStream consumer created successfully")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"consumer":    consumerInfo.Name,
		"pending":     consumerInfo.NumPending,
		"redelivered": consumerInfo.NumRedelivered,
		"ack_pending": consumerInfo.NumAckPending,
	}).Info("JetStream consumer already exists")

	return nil
}
