package queue

import (
	"context"
	"fmt"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const rabbitHandshakeTimeout = 30 * time.Second

// RabbitMQ carries envelopes on a durable queue through the default exchange.
// Each connection consumes with a prefetch of one and acknowledges a message
// as soon as Pop hands it out, matching list-pop semantics.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queueName  string
	deliveries <-chan amqp.Delivery
}

// DialRabbitMQ creates a new instance of RabbitMQ queue.
func DialRabbitMQ(ctx context.Context, url, queue string) (*RabbitMQ, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      dialContext(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &RabbitMQ{
		conn:      conn,
		channel:   ch,
		queueName: queue,
	}, nil
}

func (r *RabbitMQ) Push(ctx context.Context, payload []byte) error {
	err := r.channel.PublishWithContext(
		ctx,
		"",
		r.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         payload,
		},
	)
	if err != nil {
		return fmt.Errorf("push to %s: %w", r.queueName, err)
	}
	return nil
}

func (r *RabbitMQ) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if r.deliveries == nil {
		msgs, err := r.channel.Consume(
			r.queueName,
			"",
			false,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("consume %s: %w", r.queueName, err)
		}
		r.deliveries = msgs
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-r.deliveries:
		if !ok {
			return nil, fmt.Errorf("pop from %s: %w", r.queueName, ErrClosed)
		}
		if err := msg.Ack(false); err != nil {
			return nil, fmt.Errorf("ack %s: %w", r.queueName, err)
		}
		return msg.Body, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		_ = r.conn.Close()
		return err
	}
	return r.conn.Close()
}

// dialContext mirrors amqp.DefaultDial but aborts the TCP connect when ctx ends.
func dialContext(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: rabbitHandshakeTimeout}
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(time.Now().Add(rabbitHandshakeTimeout)); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}
