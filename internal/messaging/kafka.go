package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type Kafka struct {
	brokers []string
	logger  *slog.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
}

var _ Broker = (*Kafka)(nil)

func NewKafka(brokersCSV string, logger *slog.Logger) (*Kafka, error) {
	brokers := splitBrokers(brokersCSV)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	logger.Info("kafka configured", "brokers", brokers)
	return &Kafka{
		brokers: brokers,
		logger:  logger,
		writers: make(map[string]*kafka.Writer),
	}, nil
}

func splitBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (k *Kafka) writer(topic string) *kafka.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()
	w, ok := k.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:                   kafka.TCP(k.brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		}
		k.writers[topic] = w
	}
	return w
}

func (k *Kafka) Publish(ctx context.Context, topic, key string, body []byte) error {
	err := k.writer(topic).WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	k.logger.Debug("message published", "topic", topic, "key", key)
	return nil
}

// Subscribe reads topic as part of the consumer group. Ack commits the
// offset. A requeued message is written again at the tail of the topic before
// its offset is committed, since a later commit would otherwise skip it.
func (k *Kafka) Subscribe(ctx context.Context, topic, group string) (<-chan Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	k.mu.Lock()
	k.readers = append(k.readers, reader)
	k.mu.Unlock()

	k.logger.Info("listening on topic", "topic", topic, "group", group)

	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			m, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				k.logger.Error("kafka read error", "topic", topic, "error", err)
				select {
				case <-time.After(2 * time.Second):
					continue
				case <-ctx.Done():
					return
				}
			}
			ack, nack := settleFuncs(m,
				func() error { return reader.CommitMessages(context.Background(), m) },
				func(m kafka.Message) error { return k.republish(topic, m) },
			)
			msg := NewMessage(topic, string(m.Key), m.Value, ack, nack)
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func settleFuncs(m kafka.Message, commit func() error, republish func(kafka.Message) error) (func() error, func(bool) error) {
	nack := func(requeue bool) error {
		if requeue {
			if err := republish(m); err != nil {
				return fmt.Errorf("failed to requeue message at offset %d: %w", m.Offset, err)
			}
		}
		return commit()
	}
	return commit, nack
}

func (k *Kafka) republish(topic string, m kafka.Message) error {
	return k.writer(topic).WriteMessages(context.Background(), kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: m.Headers,
		Time:    time.Now().UTC(),
	})
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var errs []error
	for _, w := range k.writers {
		errs = append(errs, w.Close())
	}
	for _, r := range k.readers {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
