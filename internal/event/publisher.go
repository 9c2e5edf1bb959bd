package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LoyaltyQueue receives every loyalty event for the external notification
// consumer. Delivery is best-effort; the queue mirror never blocks or fails
// the operation that produced the event.
const LoyaltyQueue = "loyalty_events"

// LoyaltyEvent is the wire shape published to the queue.
type LoyaltyEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CardNo    string    `json:"card_no,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes loyalty events to RabbitMQ.
type Publisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

func NewPublisher(conn *RabbitMQConnection) *Publisher {
	return &Publisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}
}

// PublishEvent publishes one event to the loyalty_events queue.
func (p *Publisher) PublishEvent(ctx context.Context, event LoyaltyEvent) error {
	_, err := p.conn.Channel.QueueDeclare(
		LoyaltyQueue, // queue name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal loyalty event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",           // exchange
		LoyaltyQueue, // routing key (queue name)
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish loyalty event: %w", err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Info("loyalty event published", "queue", LoyaltyQueue, "type", event.Type)
	return nil
}

// GetMetrics returns publisher metrics
func (p *Publisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished,
		"messages_failed":    p.messagesFailed,
		"last_publish_time":  p.lastPublishTime,
		"queue":              LoyaltyQueue,
	}
}

// HealthCheck reports whether the underlying connection is usable.
func (p *Publisher) HealthCheck() bool {
	return p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()
}
