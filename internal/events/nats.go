package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/nats-io/nats.go"
)

// natsConn is the subset of *nats.Conn the publisher uses.
type natsConn interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher publishes order events to a NATS subject.
type NATSPublisher struct {
	conn    natsConn
	subject string
	logger  *slog.Logger
	now     func() time.Time
}

var _ domain.OrderPublisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("taxsim"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return newNATSPublisher(nc, subject, logger), nil
}

func newNATSPublisher(c natsConn, subject string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, logger: logger, now: time.Now}
}

// PublishOrderFinalized publishes the event and waits for the server to
// acknowledge the flush, bounded by ctx.
func (p *NATSPublisher) PublishOrderFinalized(ctx context.Context, order *domain.Order) error {
	event, err := NewOrderFinalizedEvent(order, p.now())
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set("Nats-Msg-Id", event.ID)
	msg.Header.Set("Event-Type", string(event.Type))

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, p.subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush %s: %w", p.subject, err)
	}

	p.logger.Debug("event published", "event_id", event.ID, "event_type", event.Type, "order_id", event.OrderID)
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
