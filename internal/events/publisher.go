package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Envelope is the JSON body of every published message.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// RabbitPublisher sends domain events to a topic exchange. With an empty URI
// it is disabled and every Publish is a logged no-op.
type RabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  channel
	exchange string
	enabled  bool
	now      func() time.Time
}

func NewRabbitPublisher(uri, exchange string) (*RabbitPublisher, error) {
	if uri == "" {
		log.Println("Warning: RabbitMQ URI is empty, event publishing is disabled")
		return &RabbitPublisher{enabled: false, now: time.Now}, nil
	}

	conn, err := amqp091.Dial(uri)
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

	return &RabbitPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		enabled:  true,
		now:      time.Now,
	}, nil
}

func (p *RabbitPublisher) Enabled() bool {
	return p.enabled
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if !p.enabled {
		return nil
	}

	occurredAt := p.now().UTC()
	body, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: occurredAt,
		Data:       payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    occurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		log.Printf("close RabbitMQ channel: %v", err)
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
