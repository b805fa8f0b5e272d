// Package crm adapts the CRM, the system of record for merchants and their
// booking fields.
package crm

import (
	"context"
	"fmt"

	"slotkeeper/pkg/model"
	"slotkeeper/pkg/sanitizer"
)

type Store interface {
	ReadMerchant(ctx context.Context, merchantID string) (model.MerchantData, error)
	// ReadBookingFields returns empty fields (no RecordID, no Status) when the
	// merchant has never booked this type.
	ReadBookingFields(ctx context.Context, merchantID string, bookingType model.BookingType) (model.BookingFields, error)
	// WriteBookingFields replaces the fields as a single record update and
	// returns them with the CRM record id set.
	WriteBookingFields(ctx context.Context, merchantID string, bookingType model.BookingType, fields model.BookingFields) (model.BookingFields, error)
}

// RecordID is the record key used by stores that mint their own ids.
func RecordID(merchantID string, bookingType model.BookingType) string {
	return fmt.Sprintf("%s:%s", merchantID, bookingType)
}

func normalizeMerchant(m model.MerchantData) model.MerchantData {
	m.Name = sanitizer.NormalizeName(m.Name)
	m.Language = sanitizer.NormalizeLanguage(m.Language)
	if m.Phone != "" {
		m.Phone = sanitizer.NormalizePhone(m.Phone)
	}
	return m
}
