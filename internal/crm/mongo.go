package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	mongotx "slotkeeper/pkg/db/mongo"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	MerchantsCollection = "crm_merchants"
	BookingsCollection  = "crm_bookings"
)

// MongoStore keeps CRM records in Mongo. It serves local deployments that
// have no CRM to talk to.
type MongoStore struct {
	merchants *mongo.Collection
	bookings  *mongo.Collection
	timeout   time.Duration
}

func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	return &MongoStore{
		merchants: db.Collection(MerchantsCollection),
		bookings:  db.Collection(BookingsCollection),
		timeout:   timeout,
	}
}

func (s *MongoStore) ReadMerchant(ctx context.Context, merchantID string) (model.MerchantData, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var m model.MerchantData
	err := s.merchants.FindOne(ctx, bson.M{"_id": merchantID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.MerchantData{}, apperrors.NotFoundWithID("Merchant", merchantID)
		}
		return model.MerchantData{}, fmt.Errorf("failed to find merchant: %w", err)
	}
	return normalizeMerchant(m), nil
}

func (s *MongoStore) ReadBookingFields(ctx context.Context, merchantID string, bookingType model.BookingType) (model.BookingFields, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, s.timeout)
	defer cancel()

	var f model.BookingFields
	err := s.bookings.FindOne(ctx, bson.M{"_id": RecordID(merchantID, bookingType)}).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.BookingFields{MerchantID: merchantID, Type: bookingType}, nil
		}
		return model.BookingFields{}, fmt.Errorf("failed to find booking fields: %w", err)
	}
	return f, nil
}

func (s *MongoStore) WriteBookingFields(ctx context.Context, merchantID string, bookingType model.BookingType, fields model.BookingFields) (model.BookingFields, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, s.timeout)
	defer cancel()

	fields.RecordID = RecordID(merchantID, bookingType)
	fields.MerchantID = merchantID
	fields.Type = bookingType
	fields.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := s.bookings.ReplaceOne(ctx,
		bson.M{"_id": fields.RecordID},
		fields,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fields, fmt.Errorf("failed to write booking fields: %w", err)
	}
	return fields, nil
}
