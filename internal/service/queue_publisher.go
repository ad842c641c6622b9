// Package queue_publisher publishes booking domain events to RabbitMQ.
// Publishing is strictly best-effort: a booking must never fail because
// the broker is down, so every error is logged and swallowed.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/odeska/cinema-booking/internal/queue"
)

// Publisher emits events to the broker at the configured URL. The zero
// URL disables publishing. It satisfies the booking package's EventSink.
type Publisher struct {
	url string
}

// New returns a Publisher for the given AMQP URL.
func New(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishBookingConfirmed emits ev on the booking.confirmed queue.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev q.BookingConfirmedEvent) {
	p.publish(ctx, q.BookingConfirmedQueue, ev)
}

// PublishHoldExpired emits ev on the hold.expired queue.
func (p *Publisher) PublishHoldExpired(ctx context.Context, ev q.HoldExpiredEvent) {
	p.publish(ctx, q.HoldExpiredQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, ev any) {
	if p == nil || p.url == "" {
		return
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare %s failed: %v", queueName, err)
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish to %s failed: %v", queueName, err)
	}
}
