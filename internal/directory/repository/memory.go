package repository

import (
	"context"
	"sync"
	"time"

	"slotkeeper/pkg/model"
)

// MemoryDirectoryRepository keeps the directory in process, for tests and
// single-node development.
type MemoryDirectoryRepository struct {
	mu       sync.Mutex
	snapshot *model.DirectorySnapshot
}

func NewMemoryDirectoryRepository(seed *model.DirectorySnapshot) *MemoryDirectoryRepository {
	if seed == nil {
		seed = &model.DirectorySnapshot{}
	}
	return &MemoryDirectoryRepository{snapshot: seed.Clone()}
}

func (r *MemoryDirectoryRepository) Load(ctx context.Context) (*model.DirectorySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot.Clone(), nil
}

func (r *MemoryDirectoryRepository) Update(ctx context.Context, expectedVersion int64, actor string, fn ApplyFunc) (*model.DirectorySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot.Version != expectedVersion {
		return nil, VersionConflict(r.snapshot.Version)
	}
	next := r.snapshot.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()
	next.UpdatedBy = actor
	r.snapshot = next
	return next.Clone(), nil
}
