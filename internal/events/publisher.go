package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "laundry_orders"

// Publisher publishes order and payment events to a topic exchange.
type Publisher struct {
	conn *amqp.Connection
}

// NewPublisher dials the broker.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// Close closes the broker connection.
func (p *Publisher) Close() error {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn.Close()
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, routingKey string, payload any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// PublishOrderStatusChanged publishes on routing key order.status.<status>.
func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, ev OrderStatusChangedEvent) error {
	return p.publish(ctx, fmt.Sprintf("order.status.%s", ev.To), ev)
}

// PublishPaymentStatusChanged publishes on routing key payment.<kind>.<status>.
func (p *Publisher) PublishPaymentStatusChanged(ctx context.Context, ev PaymentStatusChangedEvent) error {
	return p.publish(ctx, fmt.Sprintf("payment.%s.%s", ev.Kind, ev.To), ev)
}
