package busytime

import (
	"fmt"
	"strings"
	"time"

	"slotkeeper/internal/calendar"
	"slotkeeper/pkg/model"

	"github.com/teambition/rrule-go"
)

// Expand materializes the occurrences of a recurring master that intersect
// [from, to), each clipped to the range. EXDATE and RDATE lines are honored.
func Expand(master calendar.Event, from, to time.Time, loc *time.Location) ([]model.BusyInterval, error) {
	duration := master.End.Sub(master.Start)
	if duration <= 0 {
		return nil, fmt.Errorf("event %s has non-positive duration", master.ID)
	}

	var lines []string
	for _, line := range master.Recurrence {
		line = strings.TrimSpace(line)
		name := strings.ToUpper(line)
		if strings.HasPrefix(name, "RRULE") || strings.HasPrefix(name, "EXRULE") ||
			strings.HasPrefix(name, "RDATE") || strings.HasPrefix(name, "EXDATE") {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("event %s has no recurrence rule", master.ID)
	}

	set, err := rrule.StrSliceToRRuleSetInLoc(lines, loc)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence of %s: %w", master.ID, err)
	}
	// Weekday rules are evaluated in the series' own wall clock.
	set.DTStart(master.Start.In(loc))

	var out []model.BusyInterval
	for _, start := range set.Between(from.Add(-duration), to, true) {
		end := start.Add(duration)
		if !start.Before(to) || !end.After(from) {
			continue
		}
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		iv := model.BusyInterval{Start: start, End: end, Source: model.SourceRecurring}
		if iv.Valid() {
			out = append(out, iv)
		}
	}
	return out, nil
}
