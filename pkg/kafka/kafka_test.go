package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"slotkeeper/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("m-1").
		WithValue(map[string]string{"status": "confirmed"}).
		WithEventType("booking.confirmed").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if msg.GetEventType() != "booking.confirmed" {
		t.Errorf("event type = %q", msg.GetEventType())
	}

	_, err = NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if err == nil {
		t.Error("expected encoding error for unmarshalable value")
	}
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{Headers: map[string]string{}}
	for i := 0; i < 11; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 11 {
		t.Errorf("retry count = %d, want 11", got)
	}
}

func TestProducer_PublishValidatesMessage(t *testing.T) {
	p := NewProducerWithWriters("booking.outcome", &fakeWriter{}, nil, logger.Discard())

	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}
}

func TestProducer_MiddlewareOrderAndDLQ(t *testing.T) {
	main := &fakeWriter{err: errors.New("broker down")}
	dlq := &fakeWriter{}
	p := NewProducerWithWriters("booking.outcome", main, dlq, logger.Discard())

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "outer")
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "inner")
		return next(ctx, msg)
	})

	msg, _ := NewMessage().WithKey("m-1").WithValue("payload").Build()
	err := p.Publish(context.Background(), msg)
	if err == nil {
		t.Fatal("expected publish error to surface")
	}
	if len(order) != 2 || order[0] != "outer" {
		t.Errorf("unexpected middleware order %v", order)
	}
	if len(dlq.msgs) != 1 {
		t.Fatalf("expected message parked in DLQ, got %d", len(dlq.msgs))
	}
	if header(dlq.msgs[0], HeaderOriginalTopic) != "booking.outcome" {
		t.Errorf("missing original topic header")
	}
	if _, ok := msg.Headers[HeaderDLQError]; ok {
		t.Errorf("caller's headers must not be mutated")
	}
}

func TestProducer_Closed(t *testing.T) {
	p := NewProducerWithWriters("t", &fakeWriter{}, nil, logger.Discard())
	_ = p.Close()
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("v")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}

func TestConsumer_ProcessMessageRetriesThenDLQ(t *testing.T) {
	dlq := &fakeWriter{}
	calls := 0
	handler := func(ctx context.Context, msg Message) error {
		calls++
		return errors.New("mongo unavailable")
	}
	c := NewConsumerWithReader(nil, dlq, "personnel.updates", "slotkeeper-worker", handler, logger.Discard())
	c.maxRetries = 2
	c.backoff = 0

	msg := Message{Key: "p-1", Value: []byte("{}"), Headers: map[string]string{}}
	if err := c.processMessage(context.Background(), msg); err == nil {
		t.Fatal("expected handler error")
	}
	if calls != 3 {
		t.Errorf("expected 1 attempt + 2 retries, got %d", calls)
	}
	if len(dlq.msgs) != 1 {
		t.Fatalf("expected DLQ write, got %d", len(dlq.msgs))
	}
	if header(dlq.msgs[0], "dlq-consumer-group") != "slotkeeper-worker" {
		t.Error("missing consumer group header")
	}
}

func TestConsumer_PermanentErrorSkipsRetries(t *testing.T) {
	calls := 0
	handler := func(ctx context.Context, msg Message) error {
		calls++
		return Permanent(errors.New("bad payload"))
	}
	c := NewConsumerWithReader(nil, &fakeWriter{}, "personnel.updates", "g", handler, logger.Discard())
	c.backoff = 0

	_ = c.processMessage(context.Background(), Message{Key: "k", Headers: map[string]string{}})
	if calls != 1 {
		t.Errorf("permanent errors must not be retried, got %d calls", calls)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(errors.New("dial tcp: connection refused")) {
		t.Error("connection refused should be transient")
	}
	if IsTransient(Permanent(errors.New("timeout"))) {
		t.Error("permanent wrapper wins over message text")
	}
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
}
