// Package guard holds short-lived per (person, slot) locks taken while a
// booking is written.
package guard

import (
	"context"
	"time"
)

type SlotGuard interface {
	// Acquire returns false when another owner holds key.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Release drops key only if owner still holds it.
	Release(ctx context.Context, key, owner string) error
}
