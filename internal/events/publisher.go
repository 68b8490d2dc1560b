package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/taxsim/internal"
	"github.com/dukerupert/taxsim/internal/domain"
)

// NoopPublisher discards events. It is used when EVENTS_DRIVER=none.
type NoopPublisher struct{}

var _ domain.OrderPublisher = NoopPublisher{}

func (NoopPublisher) PublishOrderFinalized(context.Context, *domain.Order) error { return nil }
func (NoopPublisher) Close() error                                             { return nil }

// NewPublisher returns the publisher selected by cfg.Driver.
func NewPublisher(cfg internal.EventsConfig, logger *slog.Logger) (domain.OrderPublisher, error) {
	switch cfg.Driver {
	case "", "none":
		return NoopPublisher{}, nil
	case "kafka":
		logger.Info("publishing order events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger), nil
	case "nats":
		logger.Info("publishing order events to nats", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
		return NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
	default:
		return nil, fmt.Errorf("unknown events driver: %q", cfg.Driver)
	}
}
