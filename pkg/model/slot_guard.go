package model

import (
	"fmt"
	"time"
)

// SlotGuard is a short-lived advisory lock held while a booking for
// (person, slot) is written, so two submissions do not both pass the re-check.
type SlotGuard struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

func SlotGuardKey(personID string, slot TimeSlot) string {
	return fmt.Sprintf("slot_guard_%s_%d_%d", personID, slot.Start.Unix(), slot.End.Unix())
}
