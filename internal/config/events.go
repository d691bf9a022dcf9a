package config

import (
	"log/slog"
	"strings"

	"github.com/quizfolio/sync-service/internal/events"
)

// EventConfig holds configuration for the attempt event bus.
type EventConfig struct {
	Publisher     string // kafka or channel
	KafkaBrokers  string
	AttemptsTopic string
	ConsumerGroup string
}

// GetKafkaBrokers returns Kafka brokers as a slice.
func (c *EventConfig) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// CreateBus creates the attempt event bus based on configuration. Anything
// other than "kafka" falls back to the in-process channel bus, which is the
// right choice for single-node deployments.
func (c *EventConfig) CreateBus(logger *slog.Logger) (events.Bus, error) {
	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka attempt event bus",
			"brokers", c.KafkaBrokers,
			"topic", c.AttemptsTopic)
		return events.NewKafkaBus(events.KafkaBusConfig{
			Brokers:       c.GetKafkaBrokers(),
			Topic:         c.AttemptsTopic,
			ConsumerGroup: c.ConsumerGroup,
			Logger:        logger,
		})
	case "channel":
		logger.Info("Using in-process attempt event bus")
		return events.NewChannelBus(c.AttemptsTopic, logger), nil
	default:
		logger.Warn("Unknown event publisher type, falling back to channel bus", "publisher", c.Publisher)
		return events.NewChannelBus(c.AttemptsTopic, logger), nil
	}
}
