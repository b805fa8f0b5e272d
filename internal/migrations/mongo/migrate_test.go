package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"slotkeeper/internal/booking/guard"
	"slotkeeper/internal/crm"
	"slotkeeper/internal/directory/repository"
)

func TestCollections_CoverEveryRepository(t *testing.T) {
	defs := Collections()

	for _, name := range []string{
		repository.CollectionName,
		repository.HistoryCollectionName,
		crm.MerchantsCollection,
		crm.BookingsCollection,
		guard.CollectionName,
	} {
		def, ok := defs[name]
		require.True(t, ok, "missing migration for %s", name)
		assert.Contains(t, def.Validator, "$jsonSchema", "collection %s has no schema", name)
	}
}

func TestSlotGuardIndexes_ExpireOnDeadline(t *testing.T) {
	require.Len(t, SlotGuardIndexes, 1)
	idx := SlotGuardIndexes[0]

	assert.Equal(t, bson.D{{Key: "expires_at", Value: 1}}, idx.Keys)
	require.NotNil(t, idx.Options)
	require.NotNil(t, idx.Options.ExpireAfterSeconds)
	assert.Equal(t, int32(0), *idx.Options.ExpireAfterSeconds)
}

func TestBookingFieldsIndexes_OneRecordPerMerchantAndType(t *testing.T) {
	unique := BookingFieldsIndexes[0]
	require.NotNil(t, unique.Options)
	require.NotNil(t, unique.Options.Unique)
	assert.True(t, *unique.Options.Unique)
}
