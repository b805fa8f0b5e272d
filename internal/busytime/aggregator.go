// Package busytime merges the busy intervals a person's calendar reports
// through its three sources: free/busy, the event listing and expanded
// recurring series.
package busytime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"slotkeeper/internal/calendar"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/metrics"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/retry"

	"golang.org/x/time/rate"
)

// Source is the read side of the calendar provider.
type Source interface {
	FreeBusy(ctx context.Context, calendarID string, from, to time.Time) ([]calendar.Busy, error)
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]calendar.Event, error)
	ListRecurring(ctx context.Context, calendarID string, from, to time.Time) ([]calendar.Event, error)
}

type IdentityResolver interface {
	Resolve(ctx context.Context, email string) (string, error)
}

type Options struct {
	Timeout       time.Duration
	Retry         retry.Policy
	RatePerSecond int
	Location      *time.Location
}

type Aggregator struct {
	source   Source
	identity IdentityResolver
	opts     Options
	log      *logger.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(source Source, identity IdentityResolver, opts Options, log *logger.Logger) *Aggregator {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retry == (retry.Policy{}) {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Aggregator{
		source:   source,
		identity: identity,
		opts:     opts,
		log:      log.Component("busytime"),
		limiters: map[string]*rate.Limiter{},
	}
}

type sourceResult struct {
	source    model.BusySource
	intervals []model.BusyInterval
	err       error
}

// GetBusyIntervals returns every busy interval the three sources report for
// the candidate over [rangeStart, rangeEnd), sorted by start. Intervals are
// neither merged nor deduplicated across sources. One or two failing sources
// are tolerated; when all three fail the error is BusyTimeUnavailable and the
// caller must treat the person as fully busy.
func (a *Aggregator) GetBusyIntervals(ctx context.Context, c model.Candidate, rangeStart, rangeEnd time.Time) ([]model.BusyInterval, error) {
	if !rangeStart.Before(rangeEnd) {
		return nil, apperrors.InvalidInput("busy-time range start must be before end")
	}

	calendarID := c.CalendarID
	if calendarID == "" {
		id, err := a.identity.Resolve(ctx, c.Email)
		if err != nil {
			return nil, err
		}
		calendarID = id
	}

	fetchers := []struct {
		source model.BusySource
		fetch  func(ctx context.Context) ([]model.BusyInterval, error)
	}{
		{model.SourceFreeBusy, func(ctx context.Context) ([]model.BusyInterval, error) {
			return a.freeBusy(ctx, c.PersonID, calendarID, rangeStart, rangeEnd)
		}},
		{model.SourceEvent, func(ctx context.Context) ([]model.BusyInterval, error) {
			return a.events(ctx, c.PersonID, calendarID, rangeStart, rangeEnd)
		}},
		{model.SourceRecurring, func(ctx context.Context) ([]model.BusyInterval, error) {
			return a.recurring(ctx, c.PersonID, calendarID, rangeStart, rangeEnd)
		}},
	}

	results := make([]sourceResult, len(fetchers))
	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func(i int, source model.BusySource, fetch func(context.Context) ([]model.BusyInterval, error)) {
			defer wg.Done()
			intervals, err := a.withRetry(ctx, c.PersonID, fetch)
			results[i] = sourceResult{source: source, intervals: intervals, err: err}
		}(i, f.source, f.fetch)
	}
	wg.Wait()

	var (
		all  []model.BusyInterval
		errs []error
	)
	for _, r := range results {
		if r.err != nil {
			metrics.BusySourceFailures.WithLabelValues(string(r.source)).Inc()
			a.log.Warn("Busy-time source failed",
				"person_id", c.PersonID,
				"source", r.source,
				"error", r.err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", r.source, r.err))
			continue
		}
		all = append(all, r.intervals...)
	}

	if len(errs) == len(fetchers) {
		metrics.BusyTimeUnavailable.Inc()
		return nil, apperrors.BusyTimeUnavailable(c.PersonID, errors.Join(errs...))
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })
	return all, nil
}

func (a *Aggregator) withRetry(ctx context.Context, personID string, fetch func(context.Context) ([]model.BusyInterval, error)) ([]model.BusyInterval, error) {
	return retry.Value(ctx, a.opts.Retry, func(ctx context.Context) ([]model.BusyInterval, error) {
		if err := a.limiter(personID).Wait(ctx); err != nil {
			return nil, retry.Permanent(err)
		}
		callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()

		out, err := fetch(callCtx)
		if errors.Is(err, calendar.ErrNotFound) || errors.Is(err, calendar.ErrNoCredential) {
			return nil, retry.Permanent(err)
		}
		return out, err
	})
}

func (a *Aggregator) limiter(personID string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.limiters[personID]
	if !ok {
		limit := rate.Inf
		if a.opts.RatePerSecond > 0 {
			limit = rate.Limit(a.opts.RatePerSecond)
		}
		l = rate.NewLimiter(limit, a.opts.RatePerSecond+3)
		a.limiters[personID] = l
	}
	return l
}

func (a *Aggregator) freeBusy(ctx context.Context, personID, calendarID string, from, to time.Time) ([]model.BusyInterval, error) {
	busy, err := a.source.FreeBusy(ctx, calendarID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]model.BusyInterval, 0, len(busy))
	for _, b := range busy {
		iv := model.BusyInterval{PersonID: personID, Start: b.Start, End: b.End, Source: model.SourceFreeBusy}
		if iv.Valid() {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (a *Aggregator) events(ctx context.Context, personID, calendarID string, from, to time.Time) ([]model.BusyInterval, error) {
	events, err := a.source.ListEvents(ctx, calendarID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]model.BusyInterval, 0, len(events))
	for _, e := range events {
		if e.Cancelled || e.Transparent {
			continue
		}
		iv := model.BusyInterval{PersonID: personID, Start: e.Start, End: e.End, Source: model.SourceEvent}
		if iv.Valid() {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (a *Aggregator) recurring(ctx context.Context, personID, calendarID string, from, to time.Time) ([]model.BusyInterval, error) {
	masters, err := a.source.ListRecurring(ctx, calendarID, from, to)
	if err != nil {
		return nil, err
	}
	var out []model.BusyInterval
	for _, m := range masters {
		if m.Cancelled || m.Transparent {
			continue
		}
		occurrences, err := Expand(m, from, to, a.opts.Location)
		if err != nil {
			a.log.Warn("Skipping recurring event with unreadable rule",
				"person_id", personID,
				"event_id", m.ID,
				"error", err,
			)
			continue
		}
		for _, occ := range occurrences {
			occ.PersonID = personID
			out = append(out, occ)
		}
	}
	return out, nil
}
