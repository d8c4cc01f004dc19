package filestorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var validObjectID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// localMeta is persisted next to every object as <id>.json.
type localMeta struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	ParentID    string `json:"parentId,omitempty"`
	Public      bool   `json:"public"`
}

// LocalStorage is a filesystem-backed Store for development and tests. It
// produces view URLs in the same /file/d/{id}/view shape as Google Drive so
// references written against it stay parseable.
type LocalStorage struct {
	basePath string // directory holding object data and metadata
	baseURL  string // prefix of generated view URLs
	logger   zerolog.Logger
}

// NewLocalStorage creates the base directory if needed and returns the store.
func NewLocalStorage(basePath, baseURL string, logger zerolog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local object storage directory ensured")

	return &LocalStorage{
		basePath: filepath.Clean(basePath),
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}, nil
}

// Create stores the object bytes and metadata under a fresh id.
func (ls *LocalStorage) Create(_ context.Context, r io.Reader, meta ObjectMeta) (*Object, error) {
	id := uuid.New().String()
	dataPath := ls.dataPath(id)

	dst, err := os.Create(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create object file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		_ = os.Remove(dataPath)
		return nil, fmt.Errorf("failed to write object content: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dataPath)
		return nil, fmt.Errorf("failed to close object file: %w", err)
	}

	if err := ls.writeMeta(id, &localMeta{Name: meta.Name, ContentType: meta.ContentType, ParentID: meta.ParentID}); err != nil {
		_ = os.Remove(dataPath)
		return nil, err
	}

	ls.logger.Debug().Str("objectID", id).Str("name", meta.Name).Msg("Object stored locally")
	return &Object{ID: id, Name: meta.Name, ViewURL: ls.viewURL(id)}, nil
}

// GrantPublicRead flags the object as publicly viewable.
func (ls *LocalStorage) GrantPublicRead(_ context.Context, id string) error {
	meta, err := ls.readMeta(id)
	if err != nil {
		return err
	}
	meta.Public = true
	return ls.writeMeta(id, meta)
}

// Get returns the object metadata or ErrObjectNotFound.
func (ls *LocalStorage) Get(_ context.Context, id string) (*Object, error) {
	meta, err := ls.readMeta(id)
	if err != nil {
		return nil, err
	}
	return &Object{ID: id, Name: meta.Name, ViewURL: ls.viewURL(id)}, nil
}

// Delete removes the object data and metadata.
func (ls *LocalStorage) Delete(_ context.Context, id string) error {
	if !validObjectID.MatchString(id) {
		return ErrObjectNotFound
	}
	if err := os.Remove(ls.dataPath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	if err := os.Remove(ls.metaPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		ls.logger.Warn().Err(err).Str("objectID", id).Msg("Failed to delete object metadata")
	}
	return nil
}

// OpenPublic opens a publicly readable object for streaming together with
// its name and content type. Objects that were never granted public read are
// reported as ErrObjectNotFound.
func (ls *LocalStorage) OpenPublic(id string) (io.ReadCloser, ObjectMeta, error) {
	meta, err := ls.readMeta(id)
	if err != nil {
		return nil, ObjectMeta{}, err
	}
	if !meta.Public {
		return nil, ObjectMeta{}, ErrObjectNotFound
	}
	f, err := os.Open(ls.dataPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ObjectMeta{}, ErrObjectNotFound
		}
		return nil, ObjectMeta{}, fmt.Errorf("failed to open object: %w", err)
	}
	return f, ObjectMeta{Name: meta.Name, ContentType: meta.ContentType, ParentID: meta.ParentID}, nil
}

func (ls *LocalStorage) viewURL(id string) string {
	return ls.baseURL + "/file/d/" + id + "/view"
}

func (ls *LocalStorage) dataPath(id string) string {
	return filepath.Join(ls.basePath, id)
}

func (ls *LocalStorage) metaPath(id string) string {
	return filepath.Join(ls.basePath, id+".json")
}

func (ls *LocalStorage) readMeta(id string) (*localMeta, error) {
	if !validObjectID.MatchString(id) {
		return nil, ErrObjectNotFound
	}
	raw, err := os.ReadFile(ls.metaPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read object metadata: %w", err)
	}
	var meta localMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("corrupt object metadata for %s: %w", id, err)
	}
	return &meta, nil
}

func (ls *LocalStorage) writeMeta(id string, meta *localMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode object metadata: %w", err)
	}
	if err := os.WriteFile(ls.metaPath(id), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write object metadata: %w", err)
	}
	return nil
}
