package busytime

import (
	"testing"

	"slotkeeper/internal/calendar"
	"slotkeeper/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_WeeklyWithExdate(t *testing.T) {
	// Mondays 2026-03-02, 03-09, 03-16; the 9th is excluded.
	master := calendar.Event{
		ID:    "series-1",
		Start: at(2, 9, 0),
		End:   at(2, 10, 0),
		Recurrence: []string{
			"RRULE:FREQ=WEEKLY;BYDAY=MO",
			"EXDATE;TZID=Asia/Kuala_Lumpur:20260309T090000",
		},
	}

	got, err := Expand(master, at(1, 0, 0), at(17, 0, 0), kl)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Start.Equal(at(2, 9, 0)))
	assert.True(t, got[1].Start.Equal(at(16, 9, 0)))
	assert.Equal(t, model.SourceRecurring, got[0].Source)
}

func TestExpand_ClipsToRange(t *testing.T) {
	master := calendar.Event{
		ID:         "series-2",
		Start:      at(2, 8, 0),
		End:        at(2, 12, 0),
		Recurrence: []string{"RRULE:FREQ=DAILY;COUNT=5"},
	}

	got, err := Expand(master, at(3, 10, 0), at(3, 11, 0), kl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(at(3, 10, 0)))
	assert.True(t, got[0].End.Equal(at(3, 11, 0)))
}

func TestExpand_RejectsUnusableMasters(t *testing.T) {
	_, err := Expand(calendar.Event{ID: "x", Start: at(2, 9, 0), End: at(2, 9, 0), Recurrence: []string{"RRULE:FREQ=DAILY"}}, at(1, 0, 0), at(5, 0, 0), kl)
	assert.Error(t, err)

	_, err = Expand(calendar.Event{ID: "y", Start: at(2, 9, 0), End: at(2, 10, 0)}, at(1, 0, 0), at(5, 0, 0), kl)
	assert.Error(t, err)
}
