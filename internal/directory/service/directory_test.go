package service

import (
	"context"
	"testing"

	"slotkeeper/internal/directory/repository"
	"slotkeeper/internal/directory/validator"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(seed *model.DirectorySnapshot) DirectoryService {
	return NewDirectoryService(
		repository.NewMemoryDirectoryRepository(seed),
		validator.NewDirectoryValidator(),
		logger.Discard(),
	)
}

func trainer(id, name string) *model.Candidate {
	return &model.Candidate{
		PersonID:  id,
		Name:      name,
		Email:     id + "@example.com",
		Locations: []model.LocationCategory{model.LocationPenang},
		Role:      model.RoleTrainer,
		Active:    true,
	}
}

func TestUpdate_UpsertSanitizesAndBumpsVersion(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	c := trainer("p1", "  Aina   Rahman ")
	c.Email = " AINA@Example.com "
	c.Languages = []string{"English", " Malay", "english"}

	snap, err := svc.Update(ctx, 0, model.DirectoryMutation{Kind: model.MutationUpsertCandidate, Candidate: c, Actor: "ops"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	require.Len(t, snap.Candidates, 1)
	assert.Equal(t, "Aina Rahman", snap.Candidates[0].Name)
	assert.Equal(t, "aina@example.com", snap.Candidates[0].Email)
	assert.Equal(t, []string{"english", "malay"}, snap.Candidates[0].Languages)

	c2 := trainer("p1", "Aina Rahman")
	c2.Role = model.RoleInstaller
	snap, err = svc.Update(ctx, 1, model.DirectoryMutation{Kind: model.MutationUpsertCandidate, Candidate: c2})
	require.NoError(t, err)
	require.Len(t, snap.Candidates, 1, "upsert replaces by person id")
	assert.Equal(t, model.RoleInstaller, snap.Candidates[0].Role)
}

func TestUpdate_StaleVersionConflicts(t *testing.T) {
	svc := newService(&model.DirectorySnapshot{Version: 3, Candidates: []model.Candidate{*trainer("p1", "Aina")}})

	_, err := svc.Update(context.Background(), 2, model.DirectoryMutation{Kind: model.MutationDeactivate, PersonID: "p1"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestUpdate_Deactivate(t *testing.T) {
	svc := newService(&model.DirectorySnapshot{Version: 1, Candidates: []model.Candidate{*trainer("p1", "Aina")}})
	ctx := context.Background()

	snap, err := svc.Update(ctx, 1, model.DirectoryMutation{Kind: model.MutationDeactivate, PersonID: "p1"})
	require.NoError(t, err)
	assert.False(t, snap.Candidates[0].Active)

	_, err = svc.Update(ctx, 2, model.DirectoryMutation{Kind: model.MutationDeactivate, PersonID: "ghost"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdate_ReplaceRules(t *testing.T) {
	svc := newService(&model.DirectorySnapshot{Version: 1, Candidates: []model.Candidate{*trainer("p1", "Aina")}})
	ctx := context.Background()

	_, err := svc.Update(ctx, 1, model.DirectoryMutation{
		Kind:  model.MutationReplaceRules,
		Rules: []model.MappingRule{{MerchantID: "m1", PersonID: "ghost"}},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	snap, err := svc.Update(ctx, 1, model.DirectoryMutation{
		Kind:  model.MutationReplaceRules,
		Rules: []model.MappingRule{{MerchantName: "Kopi Corner", PersonID: "p1"}},
	})
	require.NoError(t, err)
	assert.Len(t, snap.Rules, 1)
	assert.Equal(t, int64(2), snap.Version)
}

func TestUpdate_InvalidMutation(t *testing.T) {
	svc := newService(nil)
	c := trainer("p1", "Aina")
	c.Email = "nope"

	_, err := svc.Update(context.Background(), 0, model.DirectoryMutation{Kind: model.MutationUpsertCandidate, Candidate: c})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestListCandidates_ByRole(t *testing.T) {
	installer := trainer("p2", "Badrul")
	installer.Role = model.RoleInstaller
	svc := newService(&model.DirectorySnapshot{
		Version:    5,
		Candidates: []model.Candidate{*trainer("p1", "Aina"), *installer},
	})

	snap, err := svc.ListCandidates(context.Background(), model.RoleInstaller)
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap.Version)
	require.Len(t, snap.Candidates, 1)
	assert.Equal(t, "p2", snap.Candidates[0].PersonID)

	all, err := svc.ListCandidates(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all.Candidates, 2)
}
