// Package availability builds the per-day, per-slot availability grid for a
// candidate pool.
package availability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/flow"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
)

type BusyFetcher interface {
	GetBusyIntervals(ctx context.Context, c model.Candidate, rangeStart, rangeEnd time.Time) ([]model.BusyInterval, error)
}

type Options struct {
	Location *time.Location
	FanOut   int
	MaxDays  int
}

type Engine struct {
	busy    BusyFetcher
	loc     *time.Location
	limiter *flow.Limiter
	maxDays int
	log     *logger.Logger
}

func New(busy BusyFetcher, opts Options, log *logger.Logger) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 31
	}
	return &Engine{
		busy:    busy,
		loc:     opts.Location,
		limiter: flow.NewLimiter(opts.FanOut),
		maxDays: opts.MaxDays,
		log:     log.Component("availability"),
	}
}

// personBusy is one candidate's fetch outcome. A non-empty reason marks the
// candidate as fully busy for the whole range.
type personBusy struct {
	intervals []model.BusyInterval
	reason    model.IneligibleReason
}

// Compute returns one DayAvailability per day in the range, skipping
// weekends unless the range includes them. Busy time is fetched once per
// candidate for the whole range, concurrently, before any slot is tested.
func (e *Engine) Compute(ctx context.Context, candidates []model.Candidate, rng model.DateRange, template model.SlotTemplate) ([]model.DayAvailability, error) {
	if err := e.validate(rng, template); err != nil {
		return nil, err
	}

	days := rng.Days(e.loc)
	if len(days) == 0 {
		return []model.DayAvailability{}, nil
	}
	rangeStart := days[0]
	rangeEnd := days[len(days)-1].AddDate(0, 0, 1)

	busy, err := e.fetchAll(ctx, candidates, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	grid := make([]model.DayAvailability, 0, len(days))
	for _, day := range days {
		results := make([]model.AvailabilityResult, 0, len(template))
		for _, def := range template {
			results = append(results, evaluate(def.On(day, e.loc), candidates, busy))
		}
		grid = append(grid, model.DayAvailability{
			Date:    day.Format(model.DateLayout),
			Results: results,
		})
	}
	return grid, nil
}

func (e *Engine) validate(rng model.DateRange, template model.SlotTemplate) error {
	if len(template) == 0 {
		return apperrors.InvalidInput("slot template is empty")
	}
	if rng.From.IsZero() || rng.To.IsZero() {
		return apperrors.InvalidInput("date range requires from and to")
	}
	if rng.From.After(rng.To) {
		return apperrors.Validation("invalid date range", map[string]any{"from": "must not be after to"})
	}
	fy, fm, fd := rng.From.In(e.loc).Date()
	ty, tm, td := rng.To.In(e.loc).Date()
	span := int(time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).Sub(time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)).Hours()/24) + 1
	if span > e.maxDays {
		return apperrors.Validation("date range too long", map[string]any{"to": fmt.Sprintf("range may span at most %d days", e.maxDays)})
	}
	return nil
}

func (e *Engine) fetchAll(ctx context.Context, candidates []model.Candidate, from, to time.Time) ([]personBusy, error) {
	out := make([]personBusy, len(candidates))
	err := e.limiter.ForEach(ctx, len(candidates), func(i int) {
		c := candidates[i]
		intervals, err := e.busy.GetBusyIntervals(ctx, c, from, to)
		switch {
		case err == nil:
			out[i] = personBusy{intervals: intervals}
		case apperrors.HasCode(err, apperrors.CodeIdentityNotFound):
			out[i] = personBusy{reason: model.ReasonIdentityNotFound}
		default:
			e.log.Warn("Treating candidate as fully busy",
				"person_id", c.PersonID,
				"error", err,
			)
			out[i] = personBusy{reason: model.ReasonBusyTimeUnavailable}
		}
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTimeout, "availability computation cancelled", http.StatusGatewayTimeout)
	}
	return out, nil
}

func evaluate(slot model.TimeSlot, candidates []model.Candidate, busy []personBusy) model.AvailabilityResult {
	result := model.AvailabilityResult{
		Slot:                 slot,
		EligibleCandidateIDs: []string{},
	}
	for i, c := range candidates {
		reason := busy[i].reason
		if reason == "" && !IsSlotFree(busy[i].intervals, slot) {
			reason = model.ReasonBusy
		}
		if reason != "" {
			if result.IneligibleReasons == nil {
				result.IneligibleReasons = map[string]model.IneligibleReason{}
			}
			result.IneligibleReasons[c.PersonID] = reason
			continue
		}
		result.EligibleCandidateIDs = append(result.EligibleCandidateIDs, c.PersonID)
	}
	result.Available = len(result.EligibleCandidateIDs) > 0
	return result
}

// IsSlotFree reports whether no interval overlaps the half-open slot.
func IsSlotFree(intervals []model.BusyInterval, slot model.TimeSlot) bool {
	for _, iv := range intervals {
		if model.Overlaps(slot.Start, slot.End, iv.Start, iv.End) {
			return false
		}
	}
	return true
}
