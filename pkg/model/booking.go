package model

import (
	"strings"
	"time"
)

type BookingType string

const (
	BookingTraining     BookingType = "Training"
	BookingInstallation BookingType = "Installation"
)

func (t BookingType) Valid() bool {
	return t == BookingTraining || t == BookingInstallation
}

// RoleFor maps a booking type onto the personnel role that serves it.
func (t BookingType) RoleFor() Role {
	if t == BookingInstallation {
		return RoleInstaller
	}
	return RoleTrainer
}

type ServiceType string

const (
	ServiceOnsite  ServiceType = "Onsite"
	ServiceRemote  ServiceType = "Remote"
	ServiceUnknown ServiceType = "Unknown"
)

// ParseServiceType derives a service type from the free-text CRM field.
func ParseServiceType(text string) ServiceType {
	normalized := strings.Join(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/'
	}), "")

	switch {
	case normalized == "":
		return ServiceUnknown
	case strings.Contains(normalized, "onsite"), strings.Contains(normalized, "physical"), strings.Contains(normalized, "inperson"):
		return ServiceOnsite
	case strings.Contains(normalized, "remote"), strings.Contains(normalized, "online"), strings.Contains(normalized, "virtual"):
		return ServiceRemote
	default:
		return ServiceUnknown
	}
}

type BookingStatus string

const (
	StatusScheduled   BookingStatus = "Scheduled"
	StatusCancelled   BookingStatus = "Cancelled"
	StatusRescheduled BookingStatus = "Rescheduled"
)

// Live reports whether the status refers to a booking holding a calendar event.
func (s BookingStatus) Live() bool {
	return s == StatusScheduled || s == StatusRescheduled
}

// Booking is an in-process view assembled from the CRM record and the calendar event.
type Booking struct {
	MerchantID       string        `json:"merchant_id"`
	BookingType      BookingType   `json:"booking_type"`
	Date             string        `json:"date"`
	Slot             TimeSlot      `json:"slot"`
	AssignedPersonID string        `json:"assigned_person_id"`
	CalendarEventID  string        `json:"calendar_event_id"`
	CRMRecordID      string        `json:"crm_record_id"`
	Status           BookingStatus `json:"status"`
}

// BookingFields is what the CRM stores per merchant and booking type.
type BookingFields struct {
	RecordID   string        `json:"record_id,omitempty" bson:"_id,omitempty"`
	MerchantID string        `json:"merchant_id" bson:"merchant_id"`
	Type       BookingType   `json:"booking_type" bson:"booking_type"`
	Date       string        `json:"date,omitempty" bson:"date,omitempty"`
	SlotLabel  string        `json:"slot,omitempty" bson:"slot,omitempty"`
	SlotStart  *time.Time    `json:"slot_start,omitempty" bson:"slot_start,omitempty"`
	SlotEnd    *time.Time    `json:"slot_end,omitempty" bson:"slot_end,omitempty"`
	Assignee   string        `json:"assignee,omitempty" bson:"assignee,omitempty"`
	EventID    string        `json:"event_id,omitempty" bson:"event_id,omitempty"`
	CalendarID string        `json:"calendar_id,omitempty" bson:"calendar_id,omitempty"`
	Status     BookingStatus `json:"status,omitempty" bson:"status,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at" bson:"updated_at"`
}

// Cleared returns the fields after a cancel: reference data dropped, status Cancelled.
func (f BookingFields) Cleared() BookingFields {
	return BookingFields{
		RecordID:   f.RecordID,
		MerchantID: f.MerchantID,
		Type:       f.Type,
		Status:     StatusCancelled,
	}
}

// MerchantData is the merchant view the engine reads from the CRM.
type MerchantData struct {
	MerchantID       string `json:"merchant_id" bson:"_id" validate:"required"`
	Name             string `json:"name" bson:"name"`
	Address          string `json:"address" bson:"address"`
	Language         string `json:"language,omitempty" bson:"language,omitempty"`
	ServiceTypeText  string `json:"service_type,omitempty" bson:"service_type,omitempty"`
	AccountOwner     string `json:"account_owner,omitempty" bson:"account_owner,omitempty"`
	ExplicitAssignee string `json:"explicit_assignee,omitempty" bson:"explicit_assignee,omitempty"`
	Phone            string `json:"phone,omitempty" bson:"phone,omitempty"`
}

type AttemptState string

const (
	AttemptRequested       AttemptState = "Requested"
	AttemptCalendarWritten AttemptState = "CalendarWritten"
	AttemptCrmWritten      AttemptState = "CrmWritten"
	AttemptConfirmed       AttemptState = "Confirmed"
	AttemptFailed          AttemptState = "Failed"
)

var attemptTransitions = map[AttemptState][]AttemptState{
	AttemptRequested:       {AttemptCalendarWritten, AttemptFailed},
	AttemptCalendarWritten: {AttemptCrmWritten, AttemptFailed},
	AttemptCrmWritten:      {AttemptConfirmed},
}

// CanTransition reports whether a booking attempt may move from one state to another.
func CanTransition(from, to AttemptState) bool {
	for _, next := range attemptTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
