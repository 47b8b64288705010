package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends movie events.  Callers log publish errors; a failed
// publish never undoes the write that produced the event.
type Publisher interface {
	Publish(ctx context.Context, ev MovieEvent) error
}

// NopPublisher drops every event.  Used when QUEUE_ENABLED is off.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, MovieEvent) error { return nil }

// AMQPPublisher dials the broker per publish, declares the durable queue and
// sends a persistent JSON message on the default exchange.  Movie writes are
// rare enough that holding a connection open is not worth the reconnect
// bookkeeping.
type AMQPPublisher struct {
	URL         string
	Queue       string
	DialTimeout time.Duration
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Queue: queue, DialTimeout: 2 * time.Second}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev MovieEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.DialTimeout)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	})
}
