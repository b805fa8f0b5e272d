package crm

import (
	"context"
	"sync"
	"time"

	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/model"
)

// MemoryStore is an in-process Store with failure injection for tests.
type MemoryStore struct {
	mu        sync.Mutex
	merchants map[string]model.MerchantData
	fields    map[string]model.BookingFields

	// WriteErr, when set, is returned by every WriteBookingFields call.
	WriteErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		merchants: map[string]model.MerchantData{},
		fields:    map[string]model.BookingFields{},
	}
}

func (s *MemoryStore) PutMerchant(m model.MerchantData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merchants[m.MerchantID] = m
}

func (s *MemoryStore) SetWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WriteErr = err
}

func (s *MemoryStore) ReadMerchant(ctx context.Context, merchantID string) (model.MerchantData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.merchants[merchantID]
	if !ok {
		return model.MerchantData{}, apperrors.NotFoundWithID("Merchant", merchantID)
	}
	return normalizeMerchant(m), nil
}

func (s *MemoryStore) ReadBookingFields(ctx context.Context, merchantID string, bookingType model.BookingType) (model.BookingFields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[RecordID(merchantID, bookingType)]
	if !ok {
		return model.BookingFields{MerchantID: merchantID, Type: bookingType}, nil
	}
	return f, nil
}

func (s *MemoryStore) WriteBookingFields(ctx context.Context, merchantID string, bookingType model.BookingType, fields model.BookingFields) (model.BookingFields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return fields, s.WriteErr
	}
	fields.RecordID = RecordID(merchantID, bookingType)
	fields.MerchantID = merchantID
	fields.Type = bookingType
	fields.UpdatedAt = time.Now().UTC()
	s.fields[fields.RecordID] = fields
	return fields, nil
}
