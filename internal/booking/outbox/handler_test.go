package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"slotkeeper/internal/calendar"
	"slotkeeper/pkg/logger"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompensateDeleteTask(t *testing.T) {
	task, opts, err := NewCompensateDeleteTask(CompensateDeletePayload{CalendarID: "cal-1", EventID: "evt-1", MerchantID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, TypeCompensateDelete, task.Type())
	assert.NotEmpty(t, opts)

	var p CompensateDeletePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "evt-1", p.EventID)
}

func TestCompensationHandler(t *testing.T) {
	start := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	cal := calendar.NewMemory()
	cal.Authorize("aina@example.com", "cal-1")
	eventID := cal.AddEvent("cal-1", calendar.Event{Summary: "Training", Start: start, End: start.Add(2 * time.Hour)})

	h := NewCompensationHandler(cal, logger.Discard())
	ctx := context.Background()

	task, _, err := NewCompensateDeleteTask(CompensateDeletePayload{CalendarID: "cal-1", EventID: eventID})
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(ctx, task))
	assert.Empty(t, cal.LiveEvents("cal-1"))

	// The second run finds nothing to delete and still succeeds.
	require.NoError(t, h.ProcessTask(ctx, task))
}

func TestCompensationHandler_MalformedPayloadSkipsRetry(t *testing.T) {
	h := NewCompensationHandler(calendar.NewMemory(), logger.Discard())

	err := h.ProcessTask(context.Background(), asynq.NewTask(TypeCompensateDelete, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestCompensationHandler_ProviderFailureRetries(t *testing.T) {
	cal := calendar.NewMemory()
	cal.Authorize("aina@example.com", "cal-1")
	cal.FailOn("delete_event", errors.New("503 backend error"))

	h := NewCompensationHandler(cal, logger.Discard())
	task, _, err := NewCompensateDeleteTask(CompensateDeletePayload{CalendarID: "cal-1", EventID: "evt-9"})
	require.NoError(t, err)

	err = h.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
