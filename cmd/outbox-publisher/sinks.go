package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/kafka"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/pubsub"
)

type pubSubPublisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

// pubSubSink relays to a Google Pub/Sub topic. The ordering key rides along
// as an attribute.
type pubSubSink struct {
	client pubSubPublisher
	topic  string
}

func (s *pubSubSink) Name() string { return config.OutboxPublisherPubSub }

func (s *pubSubSink) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

func (s *pubSubSink) Publish(ctx context.Context, key string, data []byte, attrs map[string]string) error {
	withKey := make(map[string]string, len(attrs)+1)
	for k, v := range attrs {
		withKey[k] = v
	}
	withKey["ordering_key"] = key
	_, err := s.client.Publish(ctx, s.topic, data, withKey)
	return err
}

func (s *pubSubSink) Close() error { return s.client.Close() }

type kafkaProducer interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
	Ping(ctx context.Context) error
	Close() error
}

type kafkaSink struct {
	producer kafkaProducer
}

func (s *kafkaSink) Name() string { return config.OutboxPublisherKafka }

func (s *kafkaSink) Ping(ctx context.Context) error { return s.producer.Ping(ctx) }

func (s *kafkaSink) Publish(ctx context.Context, key string, data []byte, attrs map[string]string) error {
	return s.producer.Publish(ctx, key, data, attrs)
}

func (s *kafkaSink) Close() error { return s.producer.Close() }

type closableSink interface {
	sink
	Close() error
}

// newSink builds the broker named by PRINTSHOP_OUTBOX_PUBLISHER.
func newSink(ctx context.Context, cfg *config.Config, logg *logger.Logger) (closableSink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Outbox.Publisher)) {
	case config.OutboxPublisherKafka:
		producer, err := kafka.NewProducer(cfg.Kafka, cfg.Outbox.Topic)
		if err != nil {
			return nil, err
		}
		return &kafkaSink{producer: producer}, nil
	case config.OutboxPublisherPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.Outbox.Topic, logg)
		if err != nil {
			return nil, err
		}
		return &pubSubSink{client: client, topic: cfg.Outbox.Topic}, nil
	default:
		return nil, fmt.Errorf("unknown outbox publisher %q", cfg.Outbox.Publisher)
	}
}
