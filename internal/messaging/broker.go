// Package messaging carries domain events between services over RabbitMQ or
// Kafka behind one small interface.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/config"
)

var ErrDisabled = errors.New("event broker disabled")

// Message is one delivery. Exactly one of Ack or Nack should be called.
type Message struct {
	Topic string
	Key   string
	Body  []byte

	ack  func() error
	nack func(requeue bool) error
}

func NewMessage(topic, key string, body []byte, ack func() error, nack func(requeue bool) error) Message {
	return Message{Topic: topic, Key: key, Body: body, ack: ack, nack: nack}
}

func (m Message) Ack() error {
	if m.ack == nil {
		return nil
	}
	return m.ack()
}

// Nack rejects the delivery. With requeue the broker delivers it again later.
func (m Message) Nack(requeue bool) error {
	if m.nack == nil {
		return nil
	}
	return m.nack(requeue)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, body []byte) error
}

type Subscriber interface {
	// Subscribe delivers messages until ctx is done, then closes the channel.
	Subscribe(ctx context.Context, topic, group string) (<-chan Message, error)
}

type Broker interface {
	Publisher
	Subscriber
	Close() error
}

// NewBroker connects to the broker selected by cfg.EventBroker. It returns
// ErrDisabled when events are switched off.
func NewBroker(cfg config.Config, logger *slog.Logger) (Broker, error) {
	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		return NewRabbitMQ(cfg.RabbitMQHost, cfg.RabbitMQPort, cfg.RabbitMQUser, cfg.RabbitMQPassword, logger)
	case config.BrokerKafka:
		return NewKafka(cfg.KafkaBrokers, logger)
	case config.BrokerNone, "":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unknown event broker %q", cfg.EventBroker)
	}
}
