package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotkeeper/pkg/config"
	mongotx "slotkeeper/pkg/db/mongo"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName        = "personnel_directory"
	HistoryCollectionName = "personnel_directory_history"

	currentDocumentID = "current"
)

// ApplyFunc mutates a copy of the current snapshot.
type ApplyFunc func(next *model.DirectorySnapshot) error

type DirectoryRepository interface {
	// Load returns the current snapshot, or an empty version 0 snapshot when
	// the directory has never been written.
	Load(ctx context.Context) (*model.DirectorySnapshot, error)
	// Update applies fn to the snapshot at expectedVersion and stores the
	// result as expectedVersion+1. A stale expectedVersion fails with Conflict.
	Update(ctx context.Context, expectedVersion int64, actor string, fn ApplyFunc) (*model.DirectorySnapshot, error)
}

type snapshotDocument struct {
	ID                      string `bson:"_id"`
	model.DirectorySnapshot `bson:",inline"`
}

type mongoDirectoryRepository struct {
	cfg       *config.Config
	current   *mongo.Collection
	history   *mongo.Collection
	txManager mongotx.TransactionManager
}

func NewMongoDirectoryRepository(cfg *config.Config) DirectoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDirectoryRepository{
		cfg:       cfg,
		current:   db.Collection(CollectionName),
		history:   db.Collection(HistoryCollectionName),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoDirectoryRepository) Load(ctx context.Context) (*model.DirectorySnapshot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc snapshotDocument
	err := r.current.FindOne(ctx, bson.M{"_id": currentDocumentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &model.DirectorySnapshot{}, nil
		}
		return nil, fmt.Errorf("failed to load personnel directory: %w", err)
	}
	return &doc.DirectorySnapshot, nil
}

func (r *mongoDirectoryRepository) Update(ctx context.Context, expectedVersion int64, actor string, fn ApplyFunc) (*model.DirectorySnapshot, error) {
	var saved *model.DirectorySnapshot

	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		current, err := r.Load(sessCtx)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return VersionConflict(current.Version)
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}
		next.Version = expectedVersion + 1
		next.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
		next.UpdatedBy = actor

		doc := snapshotDocument{ID: currentDocumentID, DirectorySnapshot: *next}
		if expectedVersion == 0 {
			if _, err := r.current.InsertOne(sessCtx, doc); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return VersionConflict(-1)
				}
				return fmt.Errorf("failed to insert personnel directory: %w", err)
			}
		} else {
			result, err := r.current.ReplaceOne(sessCtx,
				bson.M{"_id": currentDocumentID, "version": expectedVersion},
				doc,
			)
			if err != nil {
				return fmt.Errorf("failed to replace personnel directory: %w", err)
			}
			if result.MatchedCount == 0 {
				return VersionConflict(-1)
			}
		}

		if _, err := r.history.InsertOne(sessCtx, next); err != nil {
			return fmt.Errorf("failed to record personnel directory history: %w", err)
		}

		saved = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// VersionConflict reports a stale expected version. current is -1 when the
// stored version is not known.
func VersionConflict(current int64) *apperrors.AppError {
	err := apperrors.Conflict("personnel directory was changed by someone else, reload and retry")
	if current >= 0 {
		err = err.WithDetail("current_version", current)
	}
	return err
}
