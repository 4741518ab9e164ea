package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	KitchenExchange = "kitchen_tickets"
	KitchenQueue    = "kitchen.q"
	kitchenBinding  = "kitchen.*.*"
)

var (
	ErrNack          = errors.New("publish NACK from broker")
	ErrChannelClosed = errors.New("rabbitmq channel closed")
)

// channel is the part of *amqp.Channel the client drives.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	GetNextPublishSeqNo() uint64
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Client holds one confirm-mode channel. Publishes are serialized so every
// publish can wait for its own confirmation.
type Client struct {
	conn *amqp.Connection
	ch   channel

	acks <-chan amqp.Confirmation
	mu   sync.Mutex
}

func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 16))

	return &Client{conn: conn, ch: ch, acks: acks}, nil
}

// DeclareKitchen declares the ticket exchange and the durable kitchen queue.
func (c *Client) DeclareKitchen() error {
	if err := c.ch.ExchangeDeclare(KitchenExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if _, err := c.ch.QueueDeclare(KitchenQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := c.ch.QueueBind(KitchenQueue, kitchenBinding, KitchenExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

func (c *Client) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// Publish sends a persistent JSON message and waits for the broker ack of
// its delivery tag. Confirmations left over from publishes that gave up on
// their context are skipped.
func (c *Client) Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tag := c.ch.GetNextPublishSeqNo()
	err := c.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         body,
	})
	if err != nil {
		return err
	}

	for {
		select {
		case conf, ok := <-c.acks:
			if !ok {
				return ErrChannelClosed
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if conf.Ack {
				return nil
			}
			return ErrNack
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
