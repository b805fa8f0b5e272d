package service

import (
	"context"
	"fmt"

	"slotkeeper/internal/directory/repository"
	"slotkeeper/internal/directory/validator"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/sanitizer"
)

type DirectoryService interface {
	// Snapshot reads a fresh copy of the directory. Callers hold it for one request.
	Snapshot(ctx context.Context) (*model.DirectorySnapshot, error)
	ListCandidates(ctx context.Context, role model.Role) (*model.DirectorySnapshot, error)
	Update(ctx context.Context, expectedVersion int64, mutation model.DirectoryMutation) (*model.DirectorySnapshot, error)
}

type directoryService struct {
	repo      repository.DirectoryRepository
	validator *validator.DirectoryValidator
	log       *logger.Logger
}

func NewDirectoryService(
	repo repository.DirectoryRepository,
	validator *validator.DirectoryValidator,
	log *logger.Logger,
) DirectoryService {
	return &directoryService{
		repo:      repo,
		validator: validator,
		log:       log.Component("directory"),
	}
}

func (s *directoryService) Snapshot(ctx context.Context) (*model.DirectorySnapshot, error) {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		s.log.Error("Failed to load personnel directory", "error", err)
		return nil, apperrors.Internal("Failed to load personnel directory", err)
	}
	return snap, nil
}

// ListCandidates returns a snapshot narrowed to one role. An empty role
// returns everyone.
func (s *directoryService) ListCandidates(ctx context.Context, role model.Role) (*model.DirectorySnapshot, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if role != "" {
		snap.Candidates = snap.ByRole(role)
	}
	return snap, nil
}

func (s *directoryService) Update(ctx context.Context, expectedVersion int64, m model.DirectoryMutation) (*model.DirectorySnapshot, error) {
	m.ExpectedVersion = expectedVersion
	if m.Candidate != nil {
		sanitizeCandidate(m.Candidate)
	}

	if err := s.validator.ValidateMutation(&m); err != nil {
		s.log.Warn("Personnel directory mutation rejected",
			"kind", m.Kind,
			"actor", m.Actor,
			"error", err,
		)
		return nil, apperrors.Validation("Personnel directory mutation validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	saved, err := s.repo.Update(ctx, expectedVersion, m.Actor, func(next *model.DirectorySnapshot) error {
		return s.apply(next, m)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			s.log.Warn("Personnel directory update refused",
				"kind", m.Kind,
				"expected_version", expectedVersion,
				"error", err,
			)
			return nil, err
		}
		s.log.Error("Failed to update personnel directory",
			"kind", m.Kind,
			"expected_version", expectedVersion,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update personnel directory", err)
	}

	s.log.Info("Personnel directory updated",
		"kind", m.Kind,
		"version", saved.Version,
		"actor", m.Actor,
	)
	return saved, nil
}

func (s *directoryService) apply(next *model.DirectorySnapshot, m model.DirectoryMutation) error {
	switch m.Kind {
	case model.MutationUpsertCandidate:
		for i := range next.Candidates {
			if next.Candidates[i].PersonID == m.Candidate.PersonID {
				next.Candidates[i] = *m.Candidate
				return nil
			}
		}
		next.Candidates = append(next.Candidates, *m.Candidate)
		return nil

	case model.MutationDeactivate:
		for i := range next.Candidates {
			if next.Candidates[i].PersonID == m.PersonID {
				next.Candidates[i].Active = false
				return nil
			}
		}
		return apperrors.NotFoundWithID("Person", m.PersonID)

	case model.MutationReplaceRules:
		if err := s.validator.ValidateRules(m.Rules, next); err != nil {
			return apperrors.Validation("Mapping rules validation failed", map[string]any{
				"error": err.Error(),
			})
		}
		next.Rules = m.Rules
		return nil

	default:
		return apperrors.InvalidInput(fmt.Sprintf("unknown mutation kind %q", m.Kind))
	}
}

func sanitizeCandidate(c *model.Candidate) {
	c.Name = sanitizer.NormalizeName(c.Name)
	c.Email = sanitizer.NormalizeEmail(c.Email)
	c.Languages = sanitizer.NormalizeLanguages(c.Languages)
}
