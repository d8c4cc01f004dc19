package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/app/repositories"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/pkg/apperrors"
)

// mockRepo keeps records in memory and enforces versions like the real repository
type mockRepo[T any] struct {
	mu      sync.Mutex
	base    func(*T) *models.Record
	rows    map[int64]T
	nextID  int64
	calls   []string
	listArg repositories.ListParams

	updateFunc func(rec *T) error
}

func newMockRepo[T any](base func(*T) *models.Record) *mockRepo[T] {
	return &mockRepo[T]{base: base, rows: map[int64]T{}}
}

func (m *mockRepo[T]) Create(_ context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "create")
	m.nextID++
	b := m.base(rec)
	b.ID = m.nextID
	b.Version = 1
	m.rows[b.ID] = *rec
	return nil
}

func (m *mockRepo[T]) GetByID(_ context.Context, id int64) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("record %d not found", id))
	}
	return &rec, nil
}

func (m *mockRepo[T]) List(_ context.Context, params repositories.ListParams) ([]*T, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listArg = params
	items := make([]*T, 0, len(m.rows))
	for id := int64(1); id <= m.nextID; id++ {
		if rec, ok := m.rows[id]; ok {
			items = append(items, &rec)
		}
	}
	return items, int64(len(items)), nil
}

func (m *mockRepo[T]) Update(_ context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "update")
	if m.updateFunc != nil {
		if err := m.updateFunc(rec); err != nil {
			return err
		}
	}
	b := m.base(rec)
	stored, ok := m.rows[b.ID]
	if !ok {
		return apperrors.NewResourceNotFoundError("gone")
	}
	if m.base(&stored).Version != b.Version {
		return apperrors.NewConflictError("stale")
	}
	b.Version++
	m.rows[b.ID] = *rec
	return nil
}

func (m *mockRepo[T]) Delete(_ context.Context, id int64, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "delete")
	stored, ok := m.rows[id]
	if !ok {
		return apperrors.NewResourceNotFoundError("gone")
	}
	if m.base(&stored).Version != version {
		return apperrors.NewConflictError("stale")
	}
	delete(m.rows, id)
	return nil
}

// mockFiles is an in-memory attachment.Attacher
type mockFiles struct {
	mu      sync.Mutex
	objects map[string]bool
	next    int
	stored  []string
	removed []string

	storeErr  error
	removeErr error
}

func newMockFiles(ids ...string) *mockFiles {
	m := &mockFiles{objects: map[string]bool{}}
	for _, id := range ids {
		m.objects[id] = true
	}
	return m
}

func (m *mockFiles) Store(_ context.Context, localPath, displayName string) (*attachment.Reference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return nil, fmt.Errorf("%w: %w", attachment.ErrUploadFailed, m.storeErr)
	}
	m.next++
	id := fmt.Sprintf("NEW%d", m.next)
	m.objects[id] = true
	m.stored = append(m.stored, localPath)
	return &attachment.Reference{FileID: id, URL: driveURL(id), Name: displayName}, nil
}

func (m *mockFiles) Remove(_ context.Context, idOrURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return fmt.Errorf("%w: %w", attachment.ErrDeleteFailed, m.removeErr)
	}
	id, err := attachment.NormalizeID(idOrURL)
	if err != nil {
		return err
	}
	m.removed = append(m.removed, id)
	delete(m.objects, id)
	return nil
}

type mockStage struct {
	mu        sync.Mutex
	discarded []string
}

func (m *mockStage) Discard(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded = append(m.discarded, path)
}

// mockAdmins is an in-memory AdminStore
type mockAdmins struct {
	byEmail   map[string]*models.Admin
	createErr error
	getErr    error
}

func newMockAdmins() *mockAdmins {
	return &mockAdmins{byEmail: map[string]*models.Admin{}}
}

func (m *mockAdmins) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	admin, ok := m.byEmail[email]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("admin not found")
	}
	return admin, nil
}

func (m *mockAdmins) Create(_ context.Context, admin *models.Admin) error {
	if m.createErr != nil {
		return m.createErr
	}
	admin.ID = int64(len(m.byEmail) + 1)
	m.byEmail[admin.Email] = admin
	return nil
}

type mockTokens struct {
	err error
}

func (m *mockTokens) GenerateAccessToken(admin *models.Admin) (string, int64, error) {
	if m.err != nil {
		return "", 0, m.err
	}
	return fmt.Sprintf("token-%d", admin.ID), 3600, nil
}

func driveURL(id string) string {
	return "https://drive.google.com/file/d/" + id + "/view"
}
