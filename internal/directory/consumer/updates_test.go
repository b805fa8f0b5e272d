package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"slotkeeper/internal/directory/repository"
	"slotkeeper/internal/directory/service"
	"slotkeeper/internal/directory/validator"
	"slotkeeper/pkg/kafka"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, m model.DirectoryMutation) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey("hr-sync").
		WithEventType(EventTypeDirectoryMutation).
		WithValue(m).
		Build()
	require.NoError(t, err)
	return msg
}

func newHandler(seed *model.DirectorySnapshot) (*UpdatesHandler, service.DirectoryService) {
	svc := service.NewDirectoryService(
		repository.NewMemoryDirectoryRepository(seed),
		validator.NewDirectoryValidator(),
		logger.Discard(),
	)
	return NewUpdatesHandler(svc, logger.Discard()), svc
}

func isPermanent(err error) bool {
	var perm *kafka.PermanentError
	return errors.As(err, &perm)
}

func TestHandle_AppliesMutation(t *testing.T) {
	h, svc := newHandler(&model.DirectorySnapshot{
		Version:    1,
		Candidates: []model.Candidate{{PersonID: "p1", Name: "Aina", Email: "aina@example.com", Role: model.RoleTrainer, Active: true}},
	})

	err := h.Handle(context.Background(), message(t, model.DirectoryMutation{
		Kind:            model.MutationDeactivate,
		ExpectedVersion: 1,
		PersonID:        "p1",
	}))
	require.NoError(t, err)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
	assert.False(t, snap.Candidates[0].Active)
	assert.Equal(t, "kafka:hr-sync", snap.UpdatedBy)
}

func TestHandle_StaleVersionIsPermanent(t *testing.T) {
	h, _ := newHandler(&model.DirectorySnapshot{Version: 5})

	err := h.Handle(context.Background(), message(t, model.DirectoryMutation{
		Kind:            model.MutationReplaceRules,
		ExpectedVersion: 4,
	}))
	require.Error(t, err)
	assert.True(t, isPermanent(err))
}

func TestHandle_MalformedPayloadIsPermanent(t *testing.T) {
	h, _ := newHandler(nil)
	msg := kafka.Message{Value: json.RawMessage(`{"kind":`), Headers: map[string]string{}}

	err := h.Handle(context.Background(), msg)
	assert.True(t, isPermanent(err))
}

func TestHandle_IgnoresOtherEventTypes(t *testing.T) {
	h, _ := newHandler(nil)
	msg := kafka.Message{
		Value:   []byte(`{}`),
		Headers: map[string]string{kafka.HeaderEventType: "personnel.audit"},
	}
	assert.NoError(t, h.Handle(context.Background(), msg))
}
