package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/metrics"

	"github.com/hibiken/asynq"
)

type Enqueuer interface {
	EnqueueCompensation(ctx context.Context, p CompensateDeletePayload) error
}

type AsynqEnqueuer struct {
	client *asynq.Client
	log    *logger.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log *logger.Logger) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client: asynq.NewClient(redisOpt),
		log:    log.Component("outbox"),
	}
}

func (e *AsynqEnqueuer) EnqueueCompensation(ctx context.Context, p CompensateDeletePayload) error {
	task, opts, err := NewCompensateDeleteTask(p)
	if err != nil {
		return fmt.Errorf("failed to build compensation task: %w", err)
	}

	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			e.log.Info("Compensation already queued", "calendar_id", p.CalendarID, "event_id", p.EventID)
			return nil
		}
		return fmt.Errorf("failed to enqueue compensation: %w", err)
	}

	metrics.CompensationsEnqueued.Inc()
	e.log.Warn("Compensating calendar delete queued",
		"task_id", info.ID,
		"queue", info.Queue,
		"calendar_id", p.CalendarID,
		"event_id", p.EventID,
		"merchant_id", p.MerchantID,
		"reason", p.Reason,
	)
	return nil
}

func (e *AsynqEnqueuer) Close() error {
	return e.client.Close()
}

// MemoryEnqueuer records payloads instead of queueing them.
type MemoryEnqueuer struct {
	mu       sync.Mutex
	payloads []CompensateDeletePayload
	Err      error
}

func (e *MemoryEnqueuer) EnqueueCompensation(ctx context.Context, p CompensateDeletePayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.payloads = append(e.payloads, p)
	metrics.CompensationsEnqueued.Inc()
	return nil
}

func (e *MemoryEnqueuer) Payloads() []CompensateDeletePayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]CompensateDeletePayload(nil), e.payloads...)
}
