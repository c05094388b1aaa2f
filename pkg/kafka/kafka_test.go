package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(config.KafkaConfig{Brokers: " , "}, "events"); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("expected ErrNoBrokers, got %v", err)
	}
	if _, err := NewProducer(config.KafkaConfig{Brokers: "k1:9092"}, ""); err == nil {
		t.Fatal("expected missing topic error")
	}
}

func TestPublishSetsKeyAndHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{brokers: []string{"k1:9092"}, topic: "events", writer: w}

	if err := p.Publish(context.Background(), "order-1", []byte(`{}`), map[string]string{"event_type": "order_paid"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "order-1" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
	if len(msg.Headers) != 1 || msg.Headers[0].Key != "event_type" || string(msg.Headers[0].Value) != "order_paid" {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	p := &Producer{topic: "events", writer: &fakeWriter{err: errors.New("leader not available")}}
	if err := p.Publish(context.Background(), "k", nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
