package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Config struct {
	// Kafka is used when brokers are set, an in-process channel otherwise
	Brokers []string
}

// WatermillPublisher publishes events as JSON watermill messages
type WatermillPublisher struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewWatermillPublisher(cfg Config, logger *slog.Logger) (*WatermillPublisher, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	if len(cfg.Brokers) > 0 {
		publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		logger.Info("Event publisher using kafka", "brokers", cfg.Brokers)
		return &WatermillPublisher{publisher: publisher, logger: logger}, nil
	}

	channel := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
	logger.Info("Event publisher using in-process channel")
	return &WatermillPublisher{publisher: channel, subscriber: channel, logger: logger}, nil
}

// Subscriber returns the in-process subscriber, nil when publishing to kafka
func (p *WatermillPublisher) Subscriber() message.Subscriber {
	return p.subscriber
}

func (p *WatermillPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(event.Type, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Event published", "event_id", event.ID, "type", event.Type)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// LogEvents drains the given topics and logs every message until ctx ends.
// It gives the in-process channel a consumer when no broker is configured.
func LogEvents(ctx context.Context, subscriber message.Subscriber, topics []string, logger *slog.Logger) error {
	for _, topic := range topics {
		messages, err := subscriber.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}

		go func(topic string, messages <-chan *message.Message) {
			for msg := range messages {
				logger.Info("Domain event",
					"topic", topic,
					"event_id", msg.UUID,
					"payload", string(msg.Payload))
				msg.Ack()
			}
		}(topic, messages)
	}
	return nil
}
