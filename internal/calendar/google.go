package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/metrics"

	"golang.org/x/time/rate"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	providerGoogle = "google"
	maxPageResults = 250
)

// Google talks to Google Calendar on behalf of each person, using the
// person's own credential. Calls for one calendar share a rate limiter.
type Google struct {
	creds    CredentialSource
	loc      *time.Location
	log      *logger.Logger
	perSec   rate.Limit
	mu       sync.Mutex
	owners   map[string]string
	limiters map[string]*rate.Limiter
}

func NewGoogle(creds CredentialSource, loc *time.Location, ratePerSecond int, log *logger.Logger) *Google {
	return &Google{
		creds:    creds,
		loc:      loc,
		log:      log.Component("calendar.google"),
		perSec:   rate.Limit(ratePerSecond),
		owners:   map[string]string{},
		limiters: map[string]*rate.Limiter{},
	}
}

// owner returns the email whose credential serves calendarID. Primary
// calendar ids equal the owner's email unless resolved otherwise.
func (g *Google) owner(calendarID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if email, ok := g.owners[calendarID]; ok {
		return email
	}
	return calendarID
}

func (g *Google) limiter(calendarID string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[calendarID]
	if !ok {
		l = rate.NewLimiter(g.perSec, int(g.perSec)+1)
		g.limiters[calendarID] = l
	}
	return l
}

func (g *Google) service(ctx context.Context, calendarID string) (*gcal.Service, error) {
	if err := g.limiter(calendarID).Wait(ctx); err != nil {
		return nil, err
	}
	ts, err := g.creds.TokenSource(ctx, g.owner(calendarID))
	if err != nil {
		return nil, err
	}
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

func (g *Google) PrimaryCalendar(ctx context.Context, email string) (string, error) {
	defer metrics.ObserveCalendarCall(providerGoogle, "primary_calendar", time.Now())

	svc, err := g.service(ctx, email)
	if err != nil {
		return "", err
	}
	entry, err := svc.CalendarList.Get("primary").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) || isUnauthorized(err) {
			return "", ErrNoCredential
		}
		return "", fmt.Errorf("calendar list get: %w", err)
	}

	g.mu.Lock()
	g.owners[entry.Id] = email
	g.mu.Unlock()
	return entry.Id, nil
}

func (g *Google) FreeBusy(ctx context.Context, calendarID string, from, to time.Time) ([]Busy, error) {
	defer metrics.ObserveCalendarCall(providerGoogle, "freebusy", time.Now())

	svc, err := g.service(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin:  from.Format(time.RFC3339),
		TimeMax:  to.Format(time.RFC3339),
		TimeZone: g.loc.String(),
		Items:    []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, ErrNotFound
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy query: %s", cal.Errors[0].Reason)
	}

	busy := make([]Busy, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			continue
		}
		busy = append(busy, Busy{Start: start, End: end})
	}
	return busy, nil
}

func (g *Google) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	defer metrics.ObserveCalendarCall(providerGoogle, "list_events", time.Now())
	return g.list(ctx, calendarID, from, to, true)
}

func (g *Google) ListRecurring(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	defer metrics.ObserveCalendarCall(providerGoogle, "list_recurring", time.Now())

	events, err := g.list(ctx, calendarID, from, to, false)
	if err != nil {
		return nil, err
	}
	masters := events[:0]
	for _, e := range events {
		if len(e.Recurrence) > 0 {
			masters = append(masters, e)
		}
	}
	return masters, nil
}

func (g *Google) list(ctx context.Context, calendarID string, from, to time.Time, single bool) ([]Event, error) {
	svc, err := g.service(ctx, calendarID)
	if err != nil {
		return nil, err
	}

	call := svc.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		SingleEvents(single).
		ShowDeleted(false).
		MaxResults(maxPageResults)
	// Recurring masters start before the window, so only the expanded listing is bounded above.
	if single {
		call = call.TimeMax(to.Format(time.RFC3339))
	}

	var events []Event
	err = call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			ev, err := g.fromGoogle(item)
			if err != nil {
				g.log.Warn("Skipping unparseable calendar event",
					"calendar_id", calendarID,
					"event_id", item.Id,
					"error", err,
				)
				continue
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("events list: %w", err)
	}
	return events, nil
}

func (g *Google) CreateEvent(ctx context.Context, calendarID string, event Event) (string, error) {
	defer metrics.ObserveCalendarCall(providerGoogle, "create_event", time.Now())

	svc, err := g.service(ctx, calendarID)
	if err != nil {
		return "", err
	}

	body := &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.Start.In(g.loc).Format(time.RFC3339), TimeZone: g.loc.String()},
		End:         &gcal.EventDateTime{DateTime: event.End.In(g.loc).Format(time.RFC3339), TimeZone: g.loc.String()},
	}
	for _, email := range event.Attendees {
		body.Attendees = append(body.Attendees, &gcal.EventAttendee{Email: email})
	}
	if len(event.Properties) > 0 {
		body.ExtendedProperties = &gcal.EventExtendedProperties{Private: event.Properties}
	}

	created, err := svc.Events.Insert(calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("events insert: %w", err)
	}
	return created.Id, nil
}

func (g *Google) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	defer metrics.ObserveCalendarCall(providerGoogle, "get_event", time.Now())

	svc, err := g.service(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	item, err := svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("events get: %w", err)
	}
	if item.Status == "cancelled" {
		return nil, ErrNotFound
	}
	ev, err := g.fromGoogle(item)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (g *Google) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	defer metrics.ObserveCalendarCall(providerGoogle, "delete_event", time.Now())

	svc, err := g.service(ctx, calendarID)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("events delete: %w", err)
	}
	return nil
}

func (g *Google) fromGoogle(item *gcal.Event) (Event, error) {
	start, allDay, err := g.parseDateTime(item.Start)
	if err != nil {
		return Event{}, fmt.Errorf("start: %w", err)
	}
	end, _, err := g.parseDateTime(item.End)
	if err != nil {
		return Event{}, fmt.Errorf("end: %w", err)
	}

	ev := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Transparent: item.Transparency == "transparent",
		Cancelled:   item.Status == "cancelled",
		Recurrence:  item.Recurrence,
	}
	for _, a := range item.Attendees {
		ev.Attendees = append(ev.Attendees, a.Email)
	}
	if item.ExtendedProperties != nil {
		ev.Properties = item.ExtendedProperties.Private
	}
	return ev, nil
}

func (g *Google) parseDateTime(dt *gcal.EventDateTime) (time.Time, bool, error) {
	if dt == nil {
		return time.Time{}, false, errors.New("missing date")
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		return t, false, err
	}
	t, err := time.ParseInLocation("2006-01-02", dt.Date, g.loc)
	return t, true, err
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}

func isUnauthorized(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden
	}
	return false
}
