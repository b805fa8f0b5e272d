package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"slotkeeper/internal/calendar"
	"slotkeeper/pkg/logger"

	"github.com/hibiken/asynq"
)

type EventDeleter interface {
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

type CompensationHandler struct {
	calendar EventDeleter
	log      *logger.Logger
}

func NewCompensationHandler(cal EventDeleter, log *logger.Logger) *CompensationHandler {
	return &CompensationHandler{
		calendar: cal,
		log:      log.Component("outbox.worker"),
	}
}

// ProcessTask implements asynq.Handler. An event that is already gone counts
// as compensated; any other failure is returned so asynq retries it.
func (h *CompensationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p CompensateDeletePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.log.Error("Dropping malformed compensation task", "error", err)
		return fmt.Errorf("decode compensation payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.CalendarID == "" || p.EventID == "" {
		return fmt.Errorf("compensation payload missing calendar or event id: %w", asynq.SkipRetry)
	}

	err := h.calendar.DeleteEvent(ctx, p.CalendarID, p.EventID)
	switch {
	case err == nil:
		h.log.Info("Orphaned calendar event deleted",
			"calendar_id", p.CalendarID,
			"event_id", p.EventID,
			"merchant_id", p.MerchantID,
			"attempt_id", p.AttemptID,
		)
		return nil
	case errors.Is(err, calendar.ErrNotFound):
		h.log.Info("Orphaned calendar event already gone",
			"calendar_id", p.CalendarID,
			"event_id", p.EventID,
		)
		return nil
	default:
		h.log.Warn("Compensating delete failed, will retry",
			"calendar_id", p.CalendarID,
			"event_id", p.EventID,
			"error", err,
		)
		return err
	}
}

func (h *CompensationHandler) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeCompensateDelete, h)
}
