package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// MessageHandler processes one delivery body. Returning an error nacks and
// requeues the delivery.
type MessageHandler func(ctx context.Context, data json.RawMessage) error

// Consumer reads one routing key from its own durable queue
type Consumer struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
}

// NewConsumer creates a consumer for a routing key. Each routing key gets
// its own queue, e.g. "message.embed" binds to "message.embed.q".
func NewConsumer(url, routingKey string) (*Consumer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queueName := routingKey + ".q"
	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = ch.QueueBind(q.Name, routingKey, ExchangeName, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
	}, nil
}

// SetHandler installs the delivery handler
func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// Close releases the channel and connection
func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming processes deliveries with manual acknowledgement. A
// handler error nacks with requeue. Blocks until the channel closes, so
// call it from a goroutine.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	msgs, err := c.channel.Consume(
		c.queue.Name,
		"worker",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	fmt.Printf("[QUEUE] Consumer started for routing key %s (queue %s)\n", c.routingKey, c.queue.Name)

	for msg := range msgs {
		if err := c.handler(ctx, msg.Body); err != nil {
			fmt.Printf("[QUEUE] Handler error for %s: %v\n", c.routingKey, err)
			_ = msg.Nack(false, true)
			continue
		}
		if err := msg.Ack(false); err != nil {
			fmt.Printf("[QUEUE] Failed to ack message for %s: %v\n", c.routingKey, err)
		}
	}

	return nil
}
