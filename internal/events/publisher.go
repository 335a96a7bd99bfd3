package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// WatermillPublisher publishes events through any watermill publisher.
// Topics get the configured prefix prepended.
type WatermillPublisher struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	prefix     string
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewKafkaEventPublisher creates a publisher backed by Kafka
func NewKafkaEventPublisher(brokers []string, topicPrefix string, logger *slog.Logger) (*WatermillPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &WatermillPublisher{
		publisher: publisher,
		prefix:    topicPrefix,
		logger:    logger,
	}, nil
}

// NewChannelEventPublisher creates an in-process publisher. Messages published while nobody
// is subscribed are dropped.
func NewChannelEventPublisher(topicPrefix string, logger *slog.Logger) *WatermillPublisher {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)

	return &WatermillPublisher{
		publisher:  pubSub,
		subscriber: pubSub,
		prefix:     topicPrefix,
		logger:     logger,
	}
}

func (p *WatermillPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	id := event.ID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)
	msg.SetContext(ctx)

	fullTopic := p.prefix + topic
	if err := p.publisher.Publish(fullTopic, msg); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, fullTopic, err)
	}

	p.logger.DebugContext(ctx, "Event published", "event_id", id, "event_type", event.Type, "topic", fullTopic)
	return nil
}

// Subscribe is only available on the in-process publisher
func (p *WatermillPublisher) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if p.subscriber == nil {
		return nil, fmt.Errorf("publisher does not support subscriptions")
	}
	return p.subscriber.Subscribe(ctx, p.prefix+topic)
}

func (p *WatermillPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// DecodeEvent unmarshals a watermill message payload into an Event
func DecodeEvent(msg *message.Message) (*Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &event, nil
}
