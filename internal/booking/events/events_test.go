package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	pkgkafka "slotkeeper/pkg/kafka"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	producer := pkgkafka.NewProducerWithWriters("booking.outcome", w, nil, logger.Discard())
	p := NewKafkaPublisher(producer)

	err := p.Publish(context.Background(), Outcome{
		Type:        TypeConfirmed,
		AttemptID:   "att-1",
		MerchantID:  "m1",
		BookingType: model.BookingTraining,
		OccurredAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "m1", string(msg.Key))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, TypeConfirmed, headers[pkgkafka.HeaderEventType])
	assert.Equal(t, "att-1", headers[pkgkafka.HeaderCorrelationID])
	assert.Equal(t, source, headers[pkgkafka.HeaderSource])

	var decoded Outcome
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, model.BookingTraining, decoded.BookingType)
}
