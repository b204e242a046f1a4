// Package events publishes derived pricing state to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/catalog"
)

const TypeAggregatesChanged = "catalog.aggregates_changed"

// AggregatesChanged is the message body published after a parent sync.
type AggregatesChanged struct {
	Type       string                  `json:"type"`
	ParentID   int64                   `json:"parent_id"`
	Aggregates catalog.AggregateResult `json:"aggregates"`
	OccurredAt time.Time               `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

type Config struct {
	Brokers []string
	Topic   string

	// BatchTimeout bounds how long a single message waits for a batch to
	// fill. Zero uses defaultBatchTimeout.
	BatchTimeout time.Duration
}

const defaultBatchTimeout = 10 * time.Millisecond

func NewKafkaPublisher(cfg Config, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           defaultBatchTimeout,
	}
	if cfg.BatchTimeout > 0 {
		writer.BatchTimeout = cfg.BatchTimeout
	}
	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(writer messageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: writer, logger: logger, now: time.Now}
}

// PublishAggregates writes one message keyed by parent ID, so that updates
// of the same parent stay ordered within a partition.
func (p *KafkaPublisher) PublishAggregates(ctx context.Context, parentID int64, result catalog.AggregateResult) error {
	body, err := json.Marshal(AggregatesChanged{
		Type:       TypeAggregatesChanged,
		ParentID:   parentID,
		Aggregates: result,
		OccurredAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode aggregates event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(parentID, 10)),
		Value: body,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish aggregates event: %w", err)
	}

	p.logger.Debug("aggregates event published", "parent_id", parentID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishAggregates(context.Context, int64, catalog.AggregateResult) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
