// Package kafka implements alert delivery over Apache Kafka.  Each logical
// notification channel maps to its own topic under a configurable prefix, so
// downstream consumers (mail gateway, SMS bridge, in-app inbox) subscribe
// independently.
package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// WriterInterface abstracts kafka.Writer so tests can substitute a fake.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes messages with per-topic routing over a single shared
// writer.
type Producer struct {
	writer WriterInterface
	cfg    config.KafkaConfig
	log    logging.Logger
	closed atomic.Bool
}

// NewProducer creates a Producer backed by a real kafka.Writer.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Validation("kafka brokers must not be empty")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	maxAttempts := cfg.ProducerRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		MaxAttempts:  maxAttempts,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
	}

	return &Producer{writer: writer, cfg: cfg, log: log}, nil
}

// NewProducerWithWriter injects a writer.  Used by tests.
func NewProducerWithWriter(writer WriterInterface, cfg config.KafkaConfig, log logging.Logger) *Producer {
	return &Producer{writer: writer, cfg: cfg, log: log}
}

// Publish sends one keyed message to the topic.  Write failures come back as
// transient storage errors so callers may retry.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeStorage, "kafka producer is closed")
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeTransient, "kafka publish failed")
	}
	return nil
}

// Close flushes and shuts the writer down.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to close kafka writer")
	}
	p.log.Info("kafka producer closed")
	return nil
}
