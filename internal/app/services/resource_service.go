package services

import (
	"context"
	"fmt"

	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/app/repositories"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// Repository is the persistence a ResourceService needs.
// *repositories.ResourceRepository implements it.
type Repository[T any] interface {
	Create(ctx context.Context, rec *T) error
	GetByID(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, params repositories.ListParams) ([]*T, int64, error)
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id int64, version int) error
}

// ResourceService implements the content operations for one entity type,
// keeping attachments and records in step through an attachment.Lifecycle
type ResourceService[T any] struct {
	kind      string
	repo      Repository[T]
	lifecycle *attachment.Lifecycle[T]
	base      func(*T) *models.Record
	validate  func(*T) error
	logger    zerolog.Logger
}

// Fields lists the attachment slots of the entity
func (s *ResourceService[T]) Fields() []string {
	return s.lifecycle.Fields()
}

// Optional reports whether field is an attachment slot that may be cleared
func (s *ResourceService[T]) Optional(field string) bool {
	return s.lifecycle.Optional(field)
}

// Kind names the entity in messages
func (s *ResourceService[T]) Kind() string {
	return s.kind
}

// List returns one page of records
func (s *ResourceService[T]) List(ctx context.Context, params repositories.ListParams) ([]*T, int64, error) {
	return s.repo.List(ctx, params)
}

// Get returns one record
func (s *ResourceService[T]) Get(ctx context.Context, id int64) (*T, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("id", fmt.Sprintf("invalid %s id", s.kind))
	}
	return s.repo.GetByID(ctx, id)
}

// Create uploads the staged files and stores rec pointing at them
func (s *ResourceService[T]) Create(ctx context.Context, rec *T, uploads map[string]attachment.Upload) error {
	if err := s.check(rec); err != nil {
		s.lifecycle.Discard(uploads)
		return err
	}

	if err := s.lifecycle.Create(ctx, rec, uploads, s.repo.Create); err != nil {
		return err
	}

	s.logger.Info().Int64("id", s.base(rec).ID).Msgf("Created %s", s.kind)
	return nil
}

// Update replaces the record id with next. version must match the stored
// version; slots not named in change keep their current attachment.
func (s *ResourceService[T]) Update(ctx context.Context, id int64, version int, next *T, change attachment.Change) (*T, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		s.lifecycle.Discard(change.Uploads)
		return nil, err
	}

	// Fail fast on a stale version before anything is uploaded
	if s.base(current).Version != version {
		s.lifecycle.Discard(change.Uploads)
		return nil, s.conflict(id)
	}

	nb := s.base(next)
	nb.ID = id
	nb.Version = version
	nb.CreatedAt = s.base(current).CreatedAt

	if err := s.check(next); err != nil {
		s.lifecycle.Discard(change.Uploads)
		return nil, err
	}

	if err := s.lifecycle.Update(ctx, current, next, change, s.repo.Update); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("id", id).Int("version", nb.Version).Msgf("Updated %s", s.kind)
	return next, nil
}

// Delete removes the record's attachments and then the record. A version of
// zero deletes whatever version is current; the delete itself is still
// conditional on that version.
func (s *ResourceService[T]) Delete(ctx context.Context, id int64, version int) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	stored := s.base(current).Version
	if version != 0 && version != stored {
		return s.conflict(id)
	}

	err = s.lifecycle.Delete(ctx, current, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id, stored)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("id", id).Msgf("Deleted %s", s.kind)
	return nil
}

func (s *ResourceService[T]) check(rec *T) error {
	if s.validate == nil {
		return nil
	}
	return s.validate(rec)
}

func (s *ResourceService[T]) conflict(id int64) error {
	return apperrors.NewConflictError(fmt.Sprintf("%s %d was modified by another request, reload and retry", s.kind, id))
}
