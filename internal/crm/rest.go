package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"slotkeeper/pkg/client"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/model"
)

// RESTStore talks to the CRM's JSON API:
//
//	GET   /merchants/{id}
//	GET   /merchants/{id}/bookings/{type}
//	PATCH /merchants/{id}/bookings/{type}
type RESTStore struct {
	http *client.HttpClient
}

// bookingPatch is the PATCH body. Booking reference keys are always sent so a
// cancel blanks them on the CRM side instead of leaving them untouched.
type bookingPatch struct {
	RecordID   string              `json:"record_id,omitempty"`
	MerchantID string              `json:"merchant_id"`
	Type       model.BookingType   `json:"booking_type"`
	Date       string              `json:"date"`
	SlotLabel  string              `json:"slot"`
	SlotStart  *time.Time          `json:"slot_start"`
	SlotEnd    *time.Time          `json:"slot_end"`
	Assignee   string              `json:"assignee"`
	EventID    string              `json:"event_id"`
	CalendarID string              `json:"calendar_id"`
	Status     model.BookingStatus `json:"status,omitempty"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func newBookingPatch(f model.BookingFields) bookingPatch {
	return bookingPatch{
		RecordID:   f.RecordID,
		MerchantID: f.MerchantID,
		Type:       f.Type,
		Date:       f.Date,
		SlotLabel:  f.SlotLabel,
		SlotStart:  f.SlotStart,
		SlotEnd:    f.SlotEnd,
		Assignee:   f.Assignee,
		EventID:    f.EventID,
		CalendarID: f.CalendarID,
		Status:     f.Status,
		UpdatedAt:  f.UpdatedAt,
	}
}

func NewRESTStore(baseURL, token string, timeout time.Duration) *RESTStore {
	return &RESTStore{http: client.NewHttpClient(baseURL, timeout).WithBearerToken(token)}
}

func merchantPath(merchantID string) string {
	return "/merchants/" + url.PathEscape(merchantID)
}

func bookingPath(merchantID string, bookingType model.BookingType) string {
	return merchantPath(merchantID) + "/bookings/" + url.PathEscape(string(bookingType))
}

func (s *RESTStore) ReadMerchant(ctx context.Context, merchantID string) (model.MerchantData, error) {
	resp, err := s.http.GET(ctx, merchantPath(merchantID))
	if err != nil {
		return model.MerchantData{}, fmt.Errorf("crm read merchant: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return model.MerchantData{}, apperrors.NotFoundWithID("Merchant", merchantID)
	}
	if !resp.IsSuccess() {
		return model.MerchantData{}, fmt.Errorf("crm read merchant: %s", client.GetErrorMessage(resp))
	}

	var m model.MerchantData
	if err := resp.DecodeJSON(&m); err != nil {
		return model.MerchantData{}, fmt.Errorf("crm decode merchant: %w", err)
	}
	if m.MerchantID == "" {
		m.MerchantID = merchantID
	}
	return normalizeMerchant(m), nil
}

func (s *RESTStore) ReadBookingFields(ctx context.Context, merchantID string, bookingType model.BookingType) (model.BookingFields, error) {
	empty := model.BookingFields{MerchantID: merchantID, Type: bookingType}

	resp, err := s.http.GET(ctx, bookingPath(merchantID, bookingType))
	if err != nil {
		return empty, fmt.Errorf("crm read booking fields: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return empty, nil
	}
	if !resp.IsSuccess() {
		return empty, fmt.Errorf("crm read booking fields: %s", client.GetErrorMessage(resp))
	}

	var f model.BookingFields
	if err := resp.DecodeJSON(&f); err != nil {
		return empty, fmt.Errorf("crm decode booking fields: %w", err)
	}
	f.MerchantID = merchantID
	f.Type = bookingType
	return f, nil
}

func (s *RESTStore) WriteBookingFields(ctx context.Context, merchantID string, bookingType model.BookingType, fields model.BookingFields) (model.BookingFields, error) {
	fields.MerchantID = merchantID
	fields.Type = bookingType
	fields.UpdatedAt = time.Now().UTC()

	resp, err := s.http.PATCH(ctx, bookingPath(merchantID, bookingType), newBookingPatch(fields))
	if err != nil {
		return fields, fmt.Errorf("crm write booking fields: %w", err)
	}
	if !resp.IsSuccess() {
		return fields, fmt.Errorf("crm write booking fields: %s", client.GetErrorMessage(resp))
	}

	var written model.BookingFields
	if err := resp.DecodeJSON(&written); err == nil && written.RecordID != "" {
		fields.RecordID = written.RecordID
	}
	return fields, nil
}
