package bootstrap

import (
	"context"
	"testing"
	"time"

	"slotkeeper/internal/calendar"
	"slotkeeper/internal/directory/repository"
	dirservice "slotkeeper/internal/directory/service"
	dirvalidator "slotkeeper/internal/directory/validator"
	"slotkeeper/pkg/client"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		CalendarBackend:  config.CalendarBackendMemory,
		CalendarTimeout:  time.Second,
		CalendarRetryMax: 3 * time.Second,
		IdentityCacheTTL: time.Hour,
		RedisAddr:        "redis:6379",
		RedisPassword:    "pw",
		RedisDB:          2,
		BusinessLocation: time.UTC,
		Log:              logger.Discard(),
		Client:           client.NewClient(),
	}
}

func TestCalendar_MemoryBackend(t *testing.T) {
	cal, err := Calendar(testConfig())
	require.NoError(t, err)
	_, ok := cal.(*calendar.Memory)
	assert.True(t, ok, "expected in-memory provider, got %T", cal)
}

func TestCalendar_GoogleNeedsReadableCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.CalendarBackend = config.CalendarBackendGoogle
	cfg.GoogleCredentialsFile = t.TempDir() + "/missing.json"

	_, err := Calendar(cfg)
	assert.Error(t, err)
}

func TestIdentity_ResolvesThroughProvider(t *testing.T) {
	mem := calendar.NewMemory()
	mem.Authorize("aina@example.com", "cal-aina")

	resolver := Identity(testConfig(), mem)
	id, err := resolver.Resolve(context.Background(), "Aina@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "cal-aina", id)
}

func TestCalendarRetry_UsesConfiguredCeiling(t *testing.T) {
	policy := CalendarRetry(testConfig())
	assert.Equal(t, 3*time.Second, policy.MaxElapsed)
	assert.Positive(t, policy.MaxRetries)
}

func TestAsynqRedis(t *testing.T) {
	opt := AsynqRedis(testConfig())
	assert.Equal(t, "redis:6379", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
}

func TestDirectoryEmails_ActiveAndDeduplicated(t *testing.T) {
	seed := &model.DirectorySnapshot{
		Version: 1,
		Candidates: []model.Candidate{
			{PersonID: "p1", Name: "Aina", Email: "Aina@Example.com", Role: model.RoleTrainer, Active: true},
			{PersonID: "p2", Name: "Aina Dup", Email: "aina@example.com", Role: model.RoleInstaller, Active: true},
			{PersonID: "p3", Name: "Bob", Email: "bob@example.com", Role: model.RoleTrainer, Active: false},
			{PersonID: "p4", Name: "Chong", Email: "chong@example.com", Role: model.RoleExternalVendor, Active: true},
		},
	}
	directory := dirservice.NewDirectoryService(
		repository.NewMemoryDirectoryRepository(seed),
		dirvalidator.NewDirectoryValidator(),
		logger.Discard(),
	)

	emails, err := DirectoryEmails(context.Background(), directory)
	require.NoError(t, err)
	assert.Equal(t, []string{"aina@example.com", "chong@example.com"}, emails)
}
