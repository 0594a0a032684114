package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/furniture_catalog/internal/config"
	"github.com/Pesokrava/furniture_catalog/internal/pkg/logger"
)

// Publisher publishes catalog events to NATS JetStream
type Publisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewPublisher connects to NATS and makes sure the catalog stream exists
func NewPublisher(cfg *config.Config, log *logger.Logger) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("catalog-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := NewStreamConfig(js, log).EnsureStream(); err != nil {
		nc.Close()
		return nil, err
	}

	log.WithFields(map[string]any{
		"url": cfg.NATS.URL,
	}).Info("Connected to NATS JetStream")

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

// Publish stores a message on the stream and waits for the ack
func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	pubAck, err := p.js.Publish(subject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish to JetStream: %w", err)
	}

	p.logger.WithFields(map[string]any{
		"subject":  subject,
		"stream":   pubAck.Stream,
		"sequence": pubAck.Sequence,
	}).Debug("Published message to JetStream")

	return nil
}

// Close drains and closes the NATS connection
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
		}
		p.logger.Info("NATS publisher connection closed")
	}
}
