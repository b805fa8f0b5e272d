package calendar

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"slotkeeper/pkg/metrics"

	"github.com/google/uuid"
)

const providerMemory = "memory"

// Memory is an in-process Provider. It backs local runs without Google
// credentials and the package tests of everything above the port.
type Memory struct {
	mu        sync.Mutex
	calendars map[string]string // email -> calendar id
	events    map[string]map[string]Event
	busy      map[string][]Busy
	failures  map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		calendars: map[string]string{},
		events:    map[string]map[string]Event{},
		busy:      map[string][]Busy{},
		failures:  map[string]error{},
	}
}

// Authorize registers email as having granted access to calendarID.
func (m *Memory) Authorize(email, calendarID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendars[strings.ToLower(email)] = calendarID
	if _, ok := m.events[calendarID]; !ok {
		m.events[calendarID] = map[string]Event{}
	}
}

// AddBusy adds a free/busy block that has no backing event, such as one
// contributed by a secondary calendar.
func (m *Memory) AddBusy(calendarID string, start, end time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy[calendarID] = append(m.busy[calendarID], Busy{Start: start, End: end})
}

// AddEvent stores event directly, bypassing CreateEvent. It returns the id.
func (m *Memory) AddEvent(calendarID string, event Event) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(calendarID, event)
}

// FailOn makes every call of op ("freebusy", "list_events", "list_recurring",
// "create_event", "delete_event", "get_event", "primary_calendar") return
// err. A nil err clears the failure.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *Memory) insert(calendarID string, event Event) string {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if _, ok := m.events[calendarID]; !ok {
		m.events[calendarID] = map[string]Event{}
	}
	m.events[calendarID][event.ID] = event
	return event.ID
}

func (m *Memory) fail(op string) error {
	return m.failures[op]
}

func (m *Memory) PrimaryCalendar(ctx context.Context, email string) (string, error) {
	defer metrics.ObserveCalendarCall(providerMemory, "primary_calendar", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("primary_calendar"); err != nil {
		return "", err
	}
	id, ok := m.calendars[strings.ToLower(email)]
	if !ok {
		return "", ErrNoCredential
	}
	return id, nil
}

func (m *Memory) FreeBusy(ctx context.Context, calendarID string, from, to time.Time) ([]Busy, error) {
	defer metrics.ObserveCalendarCall(providerMemory, "freebusy", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("freebusy"); err != nil {
		return nil, err
	}
	events, ok := m.events[calendarID]
	if !ok {
		return nil, ErrNotFound
	}

	var out []Busy
	for _, b := range m.busy[calendarID] {
		if b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	for _, e := range events {
		if e.Cancelled || e.Transparent || len(e.Recurrence) > 0 {
			continue
		}
		if e.Start.Before(to) && e.End.After(from) {
			out = append(out, Busy{Start: e.Start, End: e.End})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *Memory) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	defer metrics.ObserveCalendarCall(providerMemory, "list_events", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("list_events"); err != nil {
		return nil, err
	}
	events, ok := m.events[calendarID]
	if !ok {
		return nil, ErrNotFound
	}

	var out []Event
	for _, e := range events {
		if len(e.Recurrence) > 0 || e.Cancelled {
			continue
		}
		if e.Start.Before(to) && e.End.After(from) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *Memory) ListRecurring(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	defer metrics.ObserveCalendarCall(providerMemory, "list_recurring", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("list_recurring"); err != nil {
		return nil, err
	}
	events, ok := m.events[calendarID]
	if !ok {
		return nil, ErrNotFound
	}

	var out []Event
	for _, e := range events {
		if len(e.Recurrence) > 0 && !e.Cancelled && e.Start.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) CreateEvent(ctx context.Context, calendarID string, event Event) (string, error) {
	defer metrics.ObserveCalendarCall(providerMemory, "create_event", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("create_event"); err != nil {
		return "", err
	}
	if _, ok := m.events[calendarID]; !ok {
		return "", ErrNotFound
	}
	event.ID = ""
	return m.insert(calendarID, event), nil
}

func (m *Memory) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	defer metrics.ObserveCalendarCall(providerMemory, "get_event", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("get_event"); err != nil {
		return nil, err
	}
	e, ok := m.events[calendarID][eventID]
	if !ok || e.Cancelled {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *Memory) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	defer metrics.ObserveCalendarCall(providerMemory, "delete_event", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("delete_event"); err != nil {
		return err
	}
	if _, ok := m.events[calendarID][eventID]; !ok {
		return ErrNotFound
	}
	delete(m.events[calendarID], eventID)
	return nil
}

// LiveEvents returns the non-recurring events currently stored on calendarID.
func (m *Memory) LiveEvents(calendarID string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, e := range m.events[calendarID] {
		if len(e.Recurrence) == 0 && !e.Cancelled {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
