package service

import (
	"fmt"

	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/metrics"
	"slotkeeper/pkg/model"

	"github.com/google/uuid"
)

type Operation string

const (
	OpBook       Operation = "book"
	OpReschedule Operation = "reschedule"
	OpCancel     Operation = "cancel"
)

// Attempt tracks one book, reschedule or cancel call through
// Requested -> CalendarWritten -> CrmWritten -> Confirmed, or Failed.
type Attempt struct {
	ID          string
	Operation   Operation
	MerchantID  string
	BookingType model.BookingType
	State       model.AttemptState

	log *logger.Logger
}

func newAttempt(op Operation, merchantID string, bookingType model.BookingType, log *logger.Logger) *Attempt {
	a := &Attempt{
		ID:          uuid.NewString(),
		Operation:   op,
		MerchantID:  merchantID,
		BookingType: bookingType,
		State:       model.AttemptRequested,
	}
	a.log = log.With(
		"attempt_id", a.ID,
		"operation", op,
		"merchant_id", merchantID,
		"booking_type", bookingType,
	)
	metrics.BookingTransitions.WithLabelValues(string(op), string(model.AttemptRequested)).Inc()
	return a
}

func (a *Attempt) advance(to model.AttemptState) error {
	if !model.CanTransition(a.State, to) {
		return fmt.Errorf("attempt %s: illegal transition %s -> %s", a.ID, a.State, to)
	}
	a.log.Info("Booking attempt transition", "from", a.State, "to", to)
	a.State = to
	metrics.BookingTransitions.WithLabelValues(string(a.Operation), string(to)).Inc()
	return nil
}

// fail moves the attempt to Failed when that is still legal. Once the CRM
// holds the booking the attempt can no longer fail.
func (a *Attempt) fail(cause error) {
	if !model.CanTransition(a.State, model.AttemptFailed) {
		return
	}
	a.log.Warn("Booking attempt failed", "from", a.State, "error", cause)
	a.State = model.AttemptFailed
	metrics.BookingTransitions.WithLabelValues(string(a.Operation), string(model.AttemptFailed)).Inc()
}
