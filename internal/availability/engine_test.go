package availability

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"

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

type mockBusy struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(c model.Candidate) ([]model.BusyInterval, error)
}

func (m *mockBusy) GetBusyIntervals(ctx context.Context, c model.Candidate, from, to time.Time) ([]model.BusyInterval, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[c.PersonID]++
	m.mu.Unlock()
	return m.fn(c)
}

func template(t *testing.T) model.SlotTemplate {
	t.Helper()
	tpl, err := model.ParseSlotTemplate("Morning=09:00-11:00;Midday=11:00-13:00")
	require.NoError(t, err)
	return tpl
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, kl)
}

func TestCompute_SelangorScenario(t *testing.T) {
	// Candidate A is busy 09:00-10:00, B is free: Morning lists only B.
	busy := &mockBusy{fn: func(c model.Candidate) ([]model.BusyInterval, error) {
		if c.PersonID == "A" {
			return []model.BusyInterval{{PersonID: "A", Start: time.Date(2026, 3, 2, 9, 0, 0, 0, kl), End: time.Date(2026, 3, 2, 10, 0, 0, 0, kl), Source: model.SourceEvent}}, nil
		}
		return nil, nil
	}}
	e := New(busy, Options{Location: kl, FanOut: 4}, logger.Discard())

	grid, err := e.Compute(context.Background(),
		[]model.Candidate{{PersonID: "A"}, {PersonID: "B"}},
		model.DateRange{From: day(2), To: day(2)},
		template(t),
	)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Equal(t, "2026-03-02", grid[0].Date)

	morning := grid[0].Results[0]
	assert.True(t, morning.Available)
	assert.Equal(t, []string{"B"}, morning.EligibleCandidateIDs)
	assert.Equal(t, model.ReasonBusy, morning.IneligibleReasons["A"])

	midday := grid[0].Results[1]
	assert.Equal(t, []string{"A", "B"}, midday.EligibleCandidateIDs)
}

func TestCompute_FetchesOncePerCandidate(t *testing.T) {
	busy := &mockBusy{fn: func(model.Candidate) ([]model.BusyInterval, error) { return nil, nil }}
	e := New(busy, Options{Location: kl, FanOut: 2}, logger.Discard())

	grid, err := e.Compute(context.Background(),
		[]model.Candidate{{PersonID: "A"}, {PersonID: "B"}, {PersonID: "C"}},
		model.DateRange{From: day(2), To: day(6)},
		template(t),
	)
	require.NoError(t, err)
	assert.Len(t, grid, 5)
	for _, id := range []string{"A", "B", "C"} {
		assert.Equal(t, 1, busy.calls[id])
	}
}

func TestCompute_WeekendsExcludedUnlessRequested(t *testing.T) {
	busy := &mockBusy{fn: func(model.Candidate) ([]model.BusyInterval, error) { return nil, nil }}
	e := New(busy, Options{Location: kl}, logger.Discard())

	// 2026-03-07 and 03-08 are Saturday and Sunday.
	grid, err := e.Compute(context.Background(), []model.Candidate{{PersonID: "A"}}, model.DateRange{From: day(7), To: day(8)}, template(t))
	require.NoError(t, err)
	assert.Empty(t, grid)

	grid, err = e.Compute(context.Background(), []model.Candidate{{PersonID: "A"}}, model.DateRange{From: day(7), To: day(8), IncludeWeekends: true}, template(t))
	require.NoError(t, err)
	assert.Len(t, grid, 2)
}

func TestCompute_FailuresTreatedAsFullyBusy(t *testing.T) {
	busy := &mockBusy{fn: func(c model.Candidate) ([]model.BusyInterval, error) {
		switch c.PersonID {
		case "noauth":
			return nil, apperrors.IdentityNotFound("noauth@example.com")
		case "down":
			return nil, apperrors.BusyTimeUnavailable("down", nil)
		}
		return nil, nil
	}}
	e := New(busy, Options{Location: kl}, logger.Discard())

	grid, err := e.Compute(context.Background(),
		[]model.Candidate{{PersonID: "noauth"}, {PersonID: "down"}},
		model.DateRange{From: day(2), To: day(2)},
		template(t),
	)
	require.NoError(t, err)
	for _, r := range grid[0].Results {
		assert.False(t, r.Available)
		assert.Equal(t, model.ReasonIdentityNotFound, r.IneligibleReasons["noauth"])
		assert.Equal(t, model.ReasonBusyTimeUnavailable, r.IneligibleReasons["down"])
	}
}

func TestCompute_Validation(t *testing.T) {
	e := New(&mockBusy{fn: func(model.Candidate) ([]model.BusyInterval, error) { return nil, nil }}, Options{Location: kl, MaxDays: 7}, logger.Discard())

	_, err := e.Compute(context.Background(), nil, model.DateRange{From: day(5), To: day(2)}, template(t))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = e.Compute(context.Background(), nil, model.DateRange{From: day(1), To: day(20)}, template(t))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = e.Compute(context.Background(), nil, model.DateRange{From: day(2), To: day(2)}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestIsSlotFree_HalfOpen(t *testing.T) {
	slot := model.TimeSlot{Start: time.Date(2026, 3, 2, 9, 0, 0, 0, kl), End: time.Date(2026, 3, 2, 11, 0, 0, 0, kl)}

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		wantFree bool
	}{
		{"ends at slot start", slot.Start.Add(-time.Hour), slot.Start, true},
		{"starts at slot end", slot.End, slot.End.Add(time.Hour), true},
		{"one minute inside", slot.End.Add(-time.Minute), slot.End.Add(time.Hour), false},
		{"utc instant inside", time.Date(2026, 3, 2, 1, 30, 0, 0, time.UTC), time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsSlotFree([]model.BusyInterval{{Start: tt.start, End: tt.end}}, slot)
			assert.Equal(t, tt.wantFree, got)
		})
	}
}
