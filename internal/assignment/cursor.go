package assignment

import (
	"context"
	"sync"

	"slotkeeper/pkg/model"

	"github.com/go-redis/redis/v8"
)

// CursorStore hands out round-robin positions per booking type. Next returns
// the position to use now; the store has already advanced past it.
type CursorStore interface {
	Next(ctx context.Context, bookingType model.BookingType) (uint64, error)
}

const cursorKeyPrefix = "slotkeeper:rr:"

// RedisCursorStore shares the cursor across scheduler replicas. INCR is
// atomic, so concurrent bookings receive distinct positions.
type RedisCursorStore struct {
	rdb *redis.Client
}

func NewRedisCursorStore(rdb *redis.Client) *RedisCursorStore {
	return &RedisCursorStore{rdb: rdb}
}

func (s *RedisCursorStore) Next(ctx context.Context, bookingType model.BookingType) (uint64, error) {
	n, err := s.rdb.Incr(ctx, cursorKeyPrefix+string(bookingType)).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n - 1), nil
}

type MemoryCursorStore struct {
	mu      sync.Mutex
	cursors map[model.BookingType]uint64
}

func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{cursors: map[model.BookingType]uint64{}}
}

func (s *MemoryCursorStore) Next(ctx context.Context, bookingType model.BookingType) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.cursors[bookingType]
	s.cursors[bookingType] = n + 1
	return n, nil
}
