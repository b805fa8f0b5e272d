package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	g := NewMemoryGuard()
	g.now = func() time.Time { return now }

	ok, err := g.Acquire(ctx, "slot", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = g.Acquire(ctx, "slot", "b", time.Minute)
	assert.False(t, ok, "held guard must not be taken")

	require.NoError(t, g.Release(ctx, "slot", "b"))
	ok, _ = g.Acquire(ctx, "slot", "b", time.Minute)
	assert.False(t, ok, "release by a non-owner is a no-op")

	now = now.Add(2 * time.Minute)
	ok, _ = g.Acquire(ctx, "slot", "b", time.Minute)
	assert.True(t, ok, "expired guard can be taken over")

	require.NoError(t, g.Release(ctx, "slot", "b"))
	ok, _ = g.Acquire(ctx, "slot", "c", time.Minute)
	assert.True(t, ok)
}
