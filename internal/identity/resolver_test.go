package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"slotkeeper/internal/calendar"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLookup struct {
	mu    sync.Mutex
	calls int
	fn    func(email string) (string, error)
}

func (m *mockLookup) PrimaryCalendar(ctx context.Context, email string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.fn(email)
}

type mockShared struct {
	data   map[string]string
	getErr error
}

func (m *mockShared) Get(ctx context.Context, email string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	id, ok := m.data[email]
	return id, ok, nil
}

func (m *mockShared) Set(ctx context.Context, email, id string, ttl time.Duration) error {
	m.data[email] = id
	return nil
}

func testOpts() Options {
	return Options{
		TTL:     time.Hour,
		Timeout: time.Second,
		Retry:   retry.Policy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxElapsed: time.Second, MaxRetries: 2},
	}
}

func TestResolve_CachesForProcessLifetime(t *testing.T) {
	lookup := &mockLookup{fn: func(email string) (string, error) { return "cal-" + email, nil }}
	shared := &mockShared{data: map[string]string{}}
	r := New(lookup, shared, testOpts(), logger.Discard())

	for i := 0; i < 3; i++ {
		id, err := r.Resolve(context.Background(), " Aina@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, "cal-aina@example.com", id)
	}
	assert.Equal(t, 1, lookup.calls)
	assert.Equal(t, "cal-aina@example.com", shared.data["aina@example.com"])
}

func TestResolve_SharedCacheHitSkipsProvider(t *testing.T) {
	lookup := &mockLookup{fn: func(string) (string, error) { return "", errors.New("should not be called") }}
	shared := &mockShared{data: map[string]string{"b@example.com": "cal-b"}}
	r := New(lookup, shared, testOpts(), logger.Discard())

	id, err := r.Resolve(context.Background(), "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cal-b", id)
	assert.Zero(t, lookup.calls)
}

func TestResolve_SharedCacheErrorFallsBack(t *testing.T) {
	lookup := &mockLookup{fn: func(string) (string, error) { return "cal-c", nil }}
	r := New(lookup, &mockShared{getErr: errors.New("redis down"), data: map[string]string{}}, testOpts(), logger.Discard())

	id, err := r.Resolve(context.Background(), "c@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cal-c", id)
}

func TestResolve_NoCredentialIsIdentityNotFound(t *testing.T) {
	lookup := &mockLookup{fn: func(string) (string, error) { return "", calendar.ErrNoCredential }}
	r := New(lookup, nil, testOpts(), logger.Discard())

	_, err := r.Resolve(context.Background(), "d@example.com")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIdentityNotFound))
	assert.Equal(t, 1, lookup.calls, "missing credentials are not retried")
}

func TestResolve_TransientErrorIsRetried(t *testing.T) {
	attempts := 0
	lookup := &mockLookup{fn: func(string) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("503")
		}
		return "cal-e", nil
	}}
	r := New(lookup, nil, testOpts(), logger.Discard())

	id, err := r.Resolve(context.Background(), "e@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cal-e", id)
	assert.Equal(t, 2, lookup.calls)
}

func TestWarm(t *testing.T) {
	mem := calendar.NewMemory()
	mem.Authorize("a@example.com", "cal-a")
	mem.Authorize("b@example.com", "cal-b")
	r := New(mem, nil, testOpts(), logger.Discard())

	resolved, missing, err := r.Warm(context.Background(), []string{"a@example.com", "b@example.com", "ghost@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, resolved)
	assert.Equal(t, 1, missing)
}
