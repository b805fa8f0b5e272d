package busytime

import (
	"context"
	"errors"
	"testing"
	"time"

	"slotkeeper/internal/calendar"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kl = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kuala_Lumpur")
	if err != nil {
		panic(err)
	}
	return loc
}()

type mockIdentity struct {
	fn func(email string) (string, error)
}

func (m *mockIdentity) Resolve(ctx context.Context, email string) (string, error) {
	return m.fn(email)
}

func newAggregator(src Source, id IdentityResolver) *Aggregator {
	return New(src, id, Options{
		Timeout:  time.Second,
		Retry:    retry.Policy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxElapsed: time.Second, MaxRetries: 1},
		Location: kl,
	}, logger.Discard())
}

func at(day, hour, min int) time.Time {
	return time.Date(2026, 3, day, hour, min, 0, 0, kl)
}

func TestGetBusyIntervals_UnionOfSources(t *testing.T) {
	mem := calendar.NewMemory()
	mem.Authorize("a@example.com", "cal-a")
	mem.AddBusy("cal-a", at(2, 14, 0), at(2, 15, 0))
	mem.AddEvent("cal-a", calendar.Event{Summary: "standup", Start: at(2, 9, 0), End: at(2, 10, 0)})
	mem.AddEvent("cal-a", calendar.Event{Summary: "focus", Start: at(2, 11, 0), End: at(2, 12, 0), Transparent: true})
	mem.AddEvent("cal-a", calendar.Event{
		Summary:    "weekly review",
		Start:      at(2, 16, 0),
		End:        at(2, 17, 0),
		Recurrence: []string{"RRULE:FREQ=WEEKLY;BYDAY=MO"},
	})

	agg := newAggregator(mem, &mockIdentity{fn: func(string) (string, error) { return "cal-a", nil }})
	c := model.Candidate{PersonID: "p-a", Email: "a@example.com"}

	got, err := agg.GetBusyIntervals(context.Background(), c, at(2, 0, 0), at(3, 0, 0))
	require.NoError(t, err)

	// standup shows up in both free/busy and the event listing; both are kept.
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Start.Before(got[i-1].Start), "intervals must be sorted")
	}
	assert.Equal(t, model.SourceFreeBusy, got[0].Source)
	assert.Equal(t, model.SourceEvent, got[1].Source)
	assert.Equal(t, model.SourceRecurring, got[3].Source)
	for _, iv := range got {
		assert.Equal(t, "p-a", iv.PersonID)
	}
}

func TestGetBusyIntervals_PartialFailureTolerated(t *testing.T) {
	mem := calendar.NewMemory()
	mem.Authorize("a@example.com", "cal-a")
	mem.AddEvent("cal-a", calendar.Event{Start: at(2, 9, 0), End: at(2, 10, 0)})
	mem.FailOn("freebusy", errors.New("503"))
	mem.FailOn("list_recurring", errors.New("503"))

	agg := newAggregator(mem, nil)
	c := model.Candidate{PersonID: "p-a", CalendarID: "cal-a"}

	got, err := agg.GetBusyIntervals(context.Background(), c, at(2, 0, 0), at(3, 0, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.SourceEvent, got[0].Source)
}

func TestGetBusyIntervals_AllSourcesFail(t *testing.T) {
	mem := calendar.NewMemory()
	mem.Authorize("a@example.com", "cal-a")
	boom := errors.New("503")
	mem.FailOn("freebusy", boom)
	mem.FailOn("list_events", boom)
	mem.FailOn("list_recurring", boom)

	agg := newAggregator(mem, nil)
	_, err := agg.GetBusyIntervals(context.Background(), model.Candidate{PersonID: "p-a", CalendarID: "cal-a"}, at(2, 0, 0), at(3, 0, 0))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeBusyTimeUnavailable))
}

func TestGetBusyIntervals_IdentityNotFoundPropagates(t *testing.T) {
	agg := newAggregator(calendar.NewMemory(), &mockIdentity{fn: func(email string) (string, error) {
		return "", apperrors.IdentityNotFound(email)
	}})

	_, err := agg.GetBusyIntervals(context.Background(), model.Candidate{PersonID: "p-x", Email: "x@example.com"}, at(2, 0, 0), at(3, 0, 0))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIdentityNotFound))
}

func TestGetBusyIntervals_InvalidRange(t *testing.T) {
	agg := newAggregator(calendar.NewMemory(), nil)
	_, err := agg.GetBusyIntervals(context.Background(), model.Candidate{CalendarID: "c"}, at(3, 0, 0), at(2, 0, 0))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
