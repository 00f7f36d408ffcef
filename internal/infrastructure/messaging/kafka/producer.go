// Package kafka publishes import-lifecycle events to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/chemlattice/molimport/internal/application/importer"
	"github.com/chemlattice/molimport/internal/config"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/pkg/errors"
)

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes import events.  It implements importer.EventPublisher.
type Producer struct {
	writer writerInterface
	topic  string
	logger logging.Logger
}

var _ importer.EventPublisher = (*Producer)(nil)

// NewProducer constructs a Producer for cfg.  The writer batches
// asynchronously with at-least-once delivery; event consumers must tolerate
// the occasional duplicate.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) *Producer {
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchSize:    batchSize,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
	}

	return &Producer{
		writer: w,
		topic:  cfg.Topic,
		logger: logger.Named("kafka.producer"),
	}
}

// ImportCompleted publishes an import-completed event keyed by import ID, so
// events for one import land on one partition in order.
func (p *Producer) ImportCompleted(ctx context.Context, ev importer.ImportCompletedEvent) error {
	env := newEnvelope(TopicImportCompleted, ev)

	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode import event")
	}

	msg := kafka.Message{
		Key:   []byte(ev.ImportID.String()),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodePublishFailed, "failed to publish import event").
			WithDetail(p.topic)
	}

	p.logger.Debug("import event published",
		logging.String("import_id", ev.ImportID.String()),
		logging.String("topic", p.topic))
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
