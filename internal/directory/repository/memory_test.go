package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDirectoryRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDirectoryRepository(nil)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Version)

	saved, err := repo.Update(ctx, 0, "ops", func(next *model.DirectorySnapshot) error {
		next.Candidates = append(next.Candidates, model.Candidate{PersonID: "p1", Name: "Aina", Active: true})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
	assert.Equal(t, "ops", saved.UpdatedBy)

	_, err = repo.Update(ctx, 0, "ops", func(*model.DirectorySnapshot) error { return nil })
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, int64(1), apperrors.AsAppError(err).Details["current_version"])
}

func TestMemoryDirectoryRepository_FailedApplyKeepsVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDirectoryRepository(&model.DirectorySnapshot{Version: 4})

	_, err := repo.Update(ctx, 4, "ops", func(next *model.DirectorySnapshot) error {
		next.Candidates = append(next.Candidates, model.Candidate{PersonID: "ghost"})
		return errors.New("rejected")
	})
	require.Error(t, err)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), snap.Version)
	assert.Empty(t, snap.Candidates)
}

func TestMemoryDirectoryRepository_NoLostUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDirectoryRepository(nil)

	const writers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, 0, "ops", func(next *model.DirectorySnapshot) error { return nil })
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "only one writer may win a given version")
}

func TestLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDirectoryRepository(&model.DirectorySnapshot{
		Version:    1,
		Candidates: []model.Candidate{{PersonID: "p1", Languages: []string{"english"}}},
	})

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	snap.Candidates[0].Languages[0] = "mutated"

	again, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "english", again.Candidates[0].Languages[0])
}
