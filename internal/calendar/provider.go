// Package calendar is the port to the external calendar provider and its adapters.
package calendar

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a calendar or event does not exist (or was deleted).
	ErrNotFound = errors.New("calendar: not found")
	// ErrNoCredential is returned when the person never authorized calendar access.
	ErrNoCredential = errors.New("calendar: no credential for person")
)

type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	// Transparent events do not block time.
	Transparent bool
	Cancelled   bool
	// Recurrence holds RFC 5545 RRULE/EXDATE/RDATE lines for series masters.
	Recurrence []string
	Attendees  []string
	Properties map[string]string
}

type Busy struct {
	Start time.Time
	End   time.Time
}

type Provider interface {
	PrimaryCalendar(ctx context.Context, email string) (string, error)
	FreeBusy(ctx context.Context, calendarID string, from, to time.Time) ([]Busy, error)
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error)
	ListRecurring(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, calendarID string, event Event) (string, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
