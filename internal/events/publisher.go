package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const routingKeyOrderCompleted = "order.completed"

// OrderCompleted is emitted after a checkout commit, for downstream
// consumers (seller notifications, bookkeeping exports).
type OrderCompleted struct {
	Email      string    `json:"email"`
	Method     string    `json:"paymentMethod"`
	Amount     float64   `json:"amount"`
	BookIDs    []string  `json:"bookIds"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher emits order events. Publishing is best-effort; callers log
// and continue on failure.
type Publisher interface {
	PublishOrderCompleted(ctx context.Context, ev OrderCompleted) error
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderCompleted(context.Context, OrderCompleted) error { return nil }

// AMQPPublisher emits events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher connects and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishOrderCompleted emits one order-completed event.
func (p *AMQPPublisher) PublishOrderCompleted(ctx context.Context, ev OrderCompleted) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKeyOrderCompleted, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close releases channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
