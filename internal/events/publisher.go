// Package events publishes content and progress changes to a RabbitMQ
// topic exchange. Routing keys are "<kind>.<action>", e.g.
// "question.created" or "import.imported".
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/mrlokans/booklearn/internal/library"
)

const publishTimeout = 5 * time.Second

// Message is the JSON body of every published event.
type Message struct {
	library.Change
	OccurredAt time.Time `json:"occurredAt"`
}

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  channel
	exchange string
	enabled  bool
}

var _ library.Notifier = (*Publisher)(nil)

// NewPublisher dials url and declares a durable topic exchange. An empty
// url returns a disabled publisher that drops every event.
func NewPublisher(url, exchange string) (*Publisher, error) {
	if url == "" {
		log.Println("Warning: RabbitMQ URL is empty, event publishing is disabled")
		return &Publisher{enabled: false}, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Printf("Publishing change events to exchange %s", exchange)
	return &Publisher{conn: conn, channel: ch, exchange: exchange, enabled: true}, nil
}

// Notify implements library.Notifier. Failures are logged.
func (p *Publisher) Notify(ctx context.Context, change library.Change) {
	if err := p.Publish(ctx, change); err != nil {
		log.Printf("Failed to publish %s: %v", change.RoutingKey(), err)
	}
}

// Publish sends one change as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, change library.Change) error {
	if !p.enabled {
		return nil
	}

	now := time.Now().UTC()
	body, err := json.Marshal(Message{Change: change, OccurredAt: now})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	// Channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange,          // exchange
		change.RoutingKey(), // routing key
		false,               // mandatory
		false,               // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    now,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Ping fails once the broker connection is gone. A disabled publisher is
// always healthy.
func (p *Publisher) Ping(context.Context) error {
	if !p.enabled {
		return nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}
