package model

// BookRequest asks for a new booking of one slot on one day.
type BookRequest struct {
	MerchantID         string      `json:"merchant_id" validate:"required,max=64"`
	BookingType        BookingType `json:"booking_type" validate:"required,booking_type"`
	Date               string      `json:"date" validate:"required,datetime=2006-01-02"`
	SlotLabel          string      `json:"slot" validate:"required,slot_label"`
	AssigneePreference string      `json:"assignee_preference,omitempty" validate:"omitempty,max=100"`
	AllowWeekend       bool        `json:"allow_weekend,omitempty"`
}

type RescheduleRequest struct {
	MerchantID   string      `json:"merchant_id" validate:"required,max=64"`
	BookingType  BookingType `json:"booking_type" validate:"required,booking_type"`
	Date         string      `json:"date" validate:"required,datetime=2006-01-02"`
	SlotLabel    string      `json:"slot" validate:"required,slot_label"`
	AllowWeekend bool        `json:"allow_weekend,omitempty"`
}

type CancelRequest struct {
	MerchantID  string      `json:"merchant_id" validate:"required,max=64"`
	BookingType BookingType `json:"booking_type" validate:"required,booking_type"`
}

type AvailabilityRequest struct {
	MerchantID      string      `json:"merchant_id" validate:"required,max=64"`
	BookingType     BookingType `json:"booking_type" validate:"required,booking_type"`
	From            string      `json:"from" validate:"required,datetime=2006-01-02"`
	To              string      `json:"to" validate:"required,datetime=2006-01-02"`
	IncludeWeekends bool        `json:"include_weekends"`
}
