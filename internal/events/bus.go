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

// Bus publishes and delivers attempt events.
type Bus interface {
	Publish(ctx context.Context, event *Event) error
	Subscribe(ctx context.Context) (<-chan *Event, error)
	Close() error
}

// WatermillBus implements Bus on top of a watermill publisher/subscriber
// pair, so the same code runs against Kafka in production and an in-process
// channel in tests and single-node deployments.
type WatermillBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	logger     *slog.Logger

	// shared marks publisher and subscriber as the same instance, so Close
	// only closes it once.
	shared bool
}

// KafkaBusConfig holds configuration for the Kafka-backed bus.
type KafkaBusConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Logger        *slog.Logger
}

// NewKafkaBus creates a bus backed by Kafka via watermill.
func NewKafkaBus(config KafkaBusConfig) (*WatermillBus, error) {
	wmLogger := watermill.NewSlogLogger(config.Logger)

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   config.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:       config.Brokers,
		Unmarshaler:   kafka.DefaultMarshaler{},
		ConsumerGroup: config.ConsumerGroup,
	}, wmLogger)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("failed to create Kafka subscriber: %w", err)
	}

	return &WatermillBus{
		publisher:  publisher,
		subscriber: subscriber,
		topic:      config.Topic,
		logger:     config.Logger,
	}, nil
}

// NewChannelBus creates an in-process bus. Used by tests and by deployments
// that run without Kafka.
func NewChannelBus(topic string, logger *slog.Logger) *WatermillBus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	return &WatermillBus{
		publisher:  pubSub,
		subscriber: pubSub,
		topic:      topic,
		logger:     logger,
		shared:     true,
	}
}

func (b *WatermillBus) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("principal_id", event.PrincipalID)

	if err := b.publisher.Publish(b.topic, msg); err != nil {
		b.logger.Error("Failed to publish attempt event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to publish attempt event: %w", err)
	}
	return nil
}

// Subscribe delivers decoded events until ctx is cancelled. Messages that do
// not decode are acked and dropped; a poison message must not wedge the
// subscription.
func (b *WatermillBus) Subscribe(ctx context.Context) (<-chan *Event, error) {
	messages, err := b.subscriber.Subscribe(ctx, b.topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.topic, err)
	}

	out := make(chan *Event)
	go func() {
		defer close(out)
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.logger.Warn("Dropping undecodable attempt event", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *WatermillBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		return err
	}
	if b.shared {
		return nil
	}
	return b.subscriber.Close()
}
