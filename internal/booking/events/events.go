// Package events publishes booking outcomes for downstream consumers
// (notifications, reporting). Publishing never decides a booking's fate.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"slotkeeper/pkg/kafka"
	"slotkeeper/pkg/model"
)

const (
	TypeConfirmed   = "booking.confirmed"
	TypeRescheduled = "booking.rescheduled"
	TypeCancelled   = "booking.cancelled"
	TypeFailed      = "booking.failed"

	schemaVersion = "1"
	source        = "slotkeeper"
)

type Outcome struct {
	Type        string            `json:"type"`
	AttemptID   string            `json:"attempt_id"`
	MerchantID  string            `json:"merchant_id"`
	BookingType model.BookingType `json:"booking_type"`
	Booking     *model.Booking    `json:"booking,omitempty"`
	ErrorCode   string            `json:"error_code,omitempty"`
	Side        string            `json:"side,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, o Outcome) error
}

type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish keys by merchant so one merchant's outcomes stay in order.
func (p *KafkaPublisher) Publish(ctx context.Context, o Outcome) error {
	msg, err := kafka.NewMessage().
		WithKey(o.MerchantID).
		WithValue(o).
		WithEventType(o.Type).
		WithCorrelationID(o.AttemptID).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()
	if err != nil {
		return fmt.Errorf("build booking outcome: %w", err)
	}
	return p.producer.Publish(ctx, msg)
}

// NopPublisher is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Outcome) error { return nil }

// MemoryPublisher records outcomes for tests.
type MemoryPublisher struct {
	mu       sync.Mutex
	outcomes []Outcome
	Err      error
}

func (p *MemoryPublisher) Publish(_ context.Context, o Outcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.outcomes = append(p.outcomes, o)
	return nil
}

func (p *MemoryPublisher) Outcomes() []Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Outcome(nil), p.outcomes...)
}

func (p *MemoryPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.outcomes))
	for _, o := range p.outcomes {
		types = append(types, o.Type)
	}
	return types
}
