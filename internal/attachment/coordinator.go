// Package attachment keeps record attachment references and objects in the
// remote attachment store consistent across create, update and delete.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/deptcms/portal/internal/pkg/filestorage"
	"github.com/rs/zerolog"
)

// Coordinator performs the two store-facing steps of the lifecycle: storing a
// staged file and removing an object. It never touches the local stage.
type Coordinator struct {
	store    filestorage.Store
	folderID string
	logger   zerolog.Logger
}

// NewCoordinator creates a Coordinator uploading into folderID.
func NewCoordinator(store filestorage.Store, folderID string, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		folderID: folderID,
		logger:   logger,
	}
}

// Store uploads the staged file at localPath under displayName, grants public
// read on it and returns the resulting reference.
//
// A failed grant is logged and counted but not returned: the object exists and
// the reference is still valid, it just may not render publicly.
func (c *Coordinator) Store(ctx context.Context, localPath, displayName string) (*Reference, error) {
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("%w: display name is empty", ErrUploadFailed)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open staged file: %w", ErrUploadFailed, err)
	}
	defer f.Close()

	contentType := DetectContentType(localPath)

	started := time.Now()
	obj, err := c.store.Create(ctx, f, filestorage.ObjectMeta{
		Name:        displayName,
		ContentType: contentType,
		ParentID:    c.folderID,
	})
	if err != nil {
		observe(opCreate, outcomeError, started)
		c.logger.Error().Err(err).Str("name", displayName).Msg("Attachment upload failed")
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	observe(opCreate, outcomeOK, started)

	started = time.Now()
	if err := c.store.GrantPublicRead(ctx, obj.ID); err != nil {
		observe(opGrant, outcomeError, started)
		c.logger.Error().
			Err(fmt.Errorf("%w: %w", ErrPermissionGrantFailed, err)).
			Str("fileID", obj.ID).
			Msg("Attachment stored but public read grant failed")
	} else {
		observe(opGrant, outcomeOK, started)
	}

	c.logger.Info().
		Str("fileID", obj.ID).
		Str("name", displayName).
		Str("contentType", contentType).
		Msg("Attachment stored")

	return &Reference{FileID: obj.ID, URL: obj.ViewURL, Name: displayName}, nil
}

// Remove deletes the object identified by a bare id or a view URL. Removing
// an object that no longer exists succeeds, so Remove is safe to repeat.
func (c *Coordinator) Remove(ctx context.Context, idOrURL string) error {
	id, err := NormalizeID(idOrURL)
	if err != nil {
		return err
	}

	started := time.Now()
	_, err = c.store.Get(ctx, id)
	switch {
	case err == nil:
		observe(opGet, outcomeOK, started)
	case errors.Is(err, filestorage.ErrObjectNotFound):
		observe(opGet, outcomeNotFound, started)
		c.logger.Info().Str("fileID", id).Msg("Attachment already absent from store")
		return nil
	default:
		// The probe is advisory; the delete below decides the outcome.
		observe(opGet, outcomeError, started)
		c.logger.Warn().Err(err).Str("fileID", id).Msg("Attachment existence check failed, attempting delete anyway")
	}

	started = time.Now()
	if err := c.store.Delete(ctx, id); err != nil {
		if errors.Is(err, filestorage.ErrObjectNotFound) {
			observe(opDelete, outcomeNotFound, started)
			return nil
		}
		observe(opDelete, outcomeError, started)
		c.logger.Error().Err(err).Str("fileID", id).Msg("Attachment delete failed")
		return fmt.Errorf("%w: %s: %w", ErrDeleteFailed, id, err)
	}
	observe(opDelete, outcomeOK, started)

	c.logger.Info().Str("fileID", id).Msg("Attachment removed")
	return nil
}
