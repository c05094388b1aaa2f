// Package kafka wraps segmentio/kafka-go for the outbox relay.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/segmentio/kafka-go"
)

var ErrNoBrokers = errors.New("kafka brokers are required")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes keyed messages to a single topic.
type Producer struct {
	brokers []string
	topic   string
	writer  messageWriter
}

// NewProducer builds a producer for topic. Messages with the same key land on
// the same partition.
func NewProducer(cfg config.KafkaConfig, topic string) (*Producer, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	return &Producer{
		brokers: brokers,
		topic:   topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

// Publish writes one message with headers.
func (p *Producer) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if p == nil || p.writer == nil {
		return errors.New("kafka producer not initialized")
	}
	msg := kafka.Message{Key: []byte(key), Value: value, Time: time.Now().UTC()}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", p.topic, err)
	}
	return nil
}

// Ping dials the first reachable broker.
func (p *Producer) Ping(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("kafka brokers unreachable: %w", lastErr)
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
