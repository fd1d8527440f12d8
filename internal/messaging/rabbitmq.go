package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger

	mu       sync.Mutex
	declared map[string]bool
}

var _ Broker = (*RabbitMQ)(nil)

func NewRabbitMQ(host string, port int, user, password string, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(rabbitURL(host, port, user, password))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	logger.Info("connected to rabbitmq", "host", host, "port", port)

	return &RabbitMQ{
		conn:     conn,
		channel:  channel,
		logger:   logger,
		declared: make(map[string]bool),
	}, nil
}

func rabbitURL(host string, port int, user, password string) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", user, password, host, port)
}

// declareQueue creates a durable queue named after the topic, once per process.
func (r *RabbitMQ) declareQueue(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.declared[name] {
		return nil
	}
	_, err := r.channel.QueueDeclare(
		name,  // queue name
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	r.declared[name] = true
	r.logger.Debug("queue declared", "queue", name)
	return nil
}

func (r *RabbitMQ) Publish(ctx context.Context, topic, key string, body []byte) error {
	if err := r.declareQueue(topic); err != nil {
		return err
	}
	err := r.channel.PublishWithContext(ctx,
		"",    // exchange
		topic, // routing key (queue name)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    key,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	r.logger.Debug("message published", "queue", topic, "key", key)
	return nil
}

// Subscribe consumes the topic's queue with manual acks. Competing consumers
// share the queue, so group is not needed here.
func (r *RabbitMQ) Subscribe(ctx context.Context, topic, _ string) (<-chan Message, error) {
	if err := r.declareQueue(topic); err != nil {
		return nil, err
	}
	deliveries, err := r.channel.ConsumeWithContext(ctx,
		topic, // queue name
		"",    // consumer tag
		false, // auto-ack (false = manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume messages: %w", err)
	}

	r.logger.Info("listening on queue", "queue", topic)

	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				msg := NewMessage(topic, d.MessageId, d.Body,
					func() error { return d.Ack(false) },
					func(requeue bool) error { return d.Nack(false, requeue) },
				)
				select {
				case out <- msg:
				case <-ctx.Done():
					d.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
