package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/domain"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

// Consumer is a plain NATS subscriber. It sees every event without
// taking messages away from the work-queue consumer.
type Consumer struct {
	nc     *nats.Conn
	logger *logger.Logger
	sub    *nats.Subscription
}

// NewConsumer creates a new NATS consumer
func NewConsumer(cfg *config.Config, log *logger.Logger) (*Consumer, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("catalog-notifier"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Infof("Connected to NATS at %s", cfg.NATS.URL)

	return &Consumer{
		nc:     nc,
		logger: log,
	}, nil
}

// Subscribe delivers every message on subject to handler. A non-empty queue
// joins a queue group so replicas split the messages between them.
func (c *Consumer) Subscribe(subject, queue string, handler func(data []byte) error) error {
	cb := func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			c.logger.Errorf(err, "Failed to handle message on subject %s", msg.Subject)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if queue == "" {
		sub, err = c.nc.Subscribe(subject, cb)
	} else {
		sub, err = c.nc.QueueSubscribe(subject, queue, cb)
	}
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	c.sub = sub
	c.logger.WithFields(map[string]any{
		"subject": subject,
		"queue":   queue,
	}).Info("Subscribed to NATS subject")
	return nil
}

// Close drains the subscription so in-flight handlers finish, then closes the connection
func (c *Consumer) Close() {
	if c.nc == nil {
		return
	}
	if err := c.nc.Drain(); err != nil {
		c.logger.Warnf("Failed to drain NATS connection: %v", err)
		c.nc.Close()
	}
	c.logger.Info("NATS consumer connection closed")
}

// LoggingHandler logs each product event with its fields
func LoggingHandler(log *logger.Logger) func(data []byte) error {
	return func(data []byte) error {
		var event domain.ProductEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Error("Failed to unmarshal event", err)
			return err
		}

		log.WithFields(map[string]any{
			"event_type": event.EventType,
			"product_id": event.ProductID,
			"timestamp":  event.Timestamp,
			"scopes":     domain.ScopesFor(event.EventType),
		}).Info("Catalog event")
		return nil
	}
}
