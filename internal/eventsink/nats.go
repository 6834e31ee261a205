package eventsink

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchcore/internal/domain"
)

// NATSConfig configures the watermill-backed sink. Field names keep
// the kafka_brokers/kafka_topic configuration vocabulary even
// though the wire implementation here is NATS, since no Kafka client
// exists anywhere in the pack this module was grounded on.
type NATSConfig struct {
	Brokers []string // NATS server URLs; only the first is used by the publisher
	Topic   string   // NATS subject
}

// NATSSink publishes trades to NATS via watermill's broker-agnostic
// Publisher. A *zap.Logger is threaded in explicitly rather than
// resolved globally, consistent with every other long-lived
// infrastructure component in this tree.
type NATSSink struct {
	publisher message.Publisher
	topic     string
	logger    *zap.Logger
}

// NewNATSSink dials cfg.Brokers[0] and returns a Sink that publishes
// each Trade as a JSON payload on cfg.Topic; the partitioning key
// is the symbol.
func NewNATSSink(cfg NATSConfig, logger *zap.Logger) (*NATSSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	url := nats.DefaultURL
	if len(cfg.Brokers) > 0 {
		url = cfg.Brokers[0]
	}

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:       url,
			Marshaler: wmnats.GobMarshaler{},
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	return &NATSSink{publisher: publisher, topic: cfg.Topic, logger: logger}, nil
}

// Publish marshals trade to JSON and publishes it on the configured
// subject, keyed by symbol for partitioning.
func (s *NATSSink) Publish(_ context.Context, trade *domain.Trade) error {
	payload, err := marshalTrade(trade)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("symbol", trade.Symbol)

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		s.logger.Warn("trade sink publish failed",
			zap.String("symbol", trade.Symbol),
			zap.Uint64("sequence", trade.SequenceID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Close releases the underlying NATS connection.
func (s *NATSSink) Close() error {
	return s.publisher.Close()
}
