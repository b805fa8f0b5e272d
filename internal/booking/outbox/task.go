// Package outbox makes compensating calendar deletes durable: when an
// inline delete fails, the delete is handed to an asynq queue and retried by
// the worker until the event is gone.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeCompensateDelete = "calendar:compensate_delete"
	QueueCompensation    = "compensation"

	maxRetry = 25
)

type CompensateDeletePayload struct {
	CalendarID  string    `json:"calendar_id"`
	EventID     string    `json:"event_id"`
	MerchantID  string    `json:"merchant_id"`
	BookingType string    `json:"booking_type"`
	AttemptID   string    `json:"attempt_id"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCompensateDeleteTask keys the task by event so the same orphan is never
// queued twice.
func NewCompensateDeleteTask(p CompensateDeletePayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeCompensateDelete, b)
	opts := []asynq.Option{
		asynq.Queue(QueueCompensation),
		asynq.MaxRetry(maxRetry),
		asynq.TaskID(p.CalendarID + "/" + p.EventID),
		asynq.Retention(24 * time.Hour),
	}
	return task, opts, nil
}
