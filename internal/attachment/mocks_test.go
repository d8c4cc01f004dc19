package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/deptcms/portal/internal/pkg/filestorage"
	"github.com/stretchr/testify/require"
)

// --- Mock attachment store ---

type createCall struct {
	Meta filestorage.ObjectMeta
	Data []byte
}

// mockStore is an in-memory filestorage.Store. Func fields override the
// default behaviour; every call is recorded. Get and Delete fail on a done
// context like the real backends do.
type mockStore struct {
	createFunc func(meta filestorage.ObjectMeta) (*filestorage.Object, error)
	grantFunc  func(id string) error
	getFunc    func(id string) (*filestorage.Object, error)
	deleteFunc func(id string) error

	mu          sync.Mutex
	objects     map[string]*filestorage.Object
	nextIDs     []string
	createCalls []createCall
	grantCalls  []string
	getCalls    []string
	deleteCalls []string
}

func newMockStore(nextIDs ...string) *mockStore {
	return &mockStore{objects: make(map[string]*filestorage.Object), nextIDs: nextIDs}
}

func (m *mockStore) put(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[id] = &filestorage.Object{ID: id, ViewURL: driveURL(id)}
}

func (m *mockStore) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[id]
	return ok
}

func (m *mockStore) Create(_ context.Context, r io.Reader, meta filestorage.ObjectMeta) (*filestorage.Object, error) {
	data, _ := io.ReadAll(r)
	m.mu.Lock()
	m.createCalls = append(m.createCalls, createCall{Meta: meta, Data: data})
	m.mu.Unlock()

	if m.createFunc != nil {
		return m.createFunc(meta)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("GEN%d", len(m.createCalls))
	if len(m.nextIDs) > 0 {
		id, m.nextIDs = m.nextIDs[0], m.nextIDs[1:]
	}
	obj := &filestorage.Object{ID: id, Name: meta.Name, ViewURL: driveURL(id)}
	m.objects[id] = obj
	return obj, nil
}

func (m *mockStore) GrantPublicRead(_ context.Context, id string) error {
	m.mu.Lock()
	m.grantCalls = append(m.grantCalls, id)
	m.mu.Unlock()
	if m.grantFunc != nil {
		return m.grantFunc(id)
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, id string) (*filestorage.Object, error) {
	m.mu.Lock()
	m.getCalls = append(m.getCalls, id)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.getFunc != nil {
		return m.getFunc(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[id]
	if !ok {
		return nil, filestorage.ErrObjectNotFound
	}
	return obj, nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, id)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; !ok {
		return filestorage.ErrObjectNotFound
	}
	delete(m.objects, id)
	return nil
}

// --- Mock intent store ---

type mockIntentStore struct {
	recordFunc func(intent CleanupIntent) error

	mu        sync.Mutex
	nextID    int64
	intents   map[int64]*CleanupIntent
	recorded  []CleanupIntent
	resolved  []int64
	failedIDs []int64
}

func newMockIntentStore() *mockIntentStore {
	return &mockIntentStore{intents: make(map[int64]*CleanupIntent)}
}

func (m *mockIntentStore) Record(ctx context.Context, intent CleanupIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.recordFunc != nil {
		if err := m.recordFunc(intent); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	intent.ID = m.nextID
	m.intents[intent.ID] = &intent
	m.recorded = append(m.recorded, intent)
	return nil
}

func (m *mockIntentStore) Pending(_ context.Context, limit, maxAttempts int) ([]CleanupIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CleanupIntent
	for id := int64(1); id <= m.nextID && len(out) < limit; id++ {
		in, ok := m.intents[id]
		if ok && in.Attempts < maxAttempts {
			out = append(out, *in)
		}
	}
	return out, nil
}

func (m *mockIntentStore) Resolve(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.intents, id)
	m.resolved = append(m.resolved, id)
	return nil
}

func (m *mockIntentStore) MarkFailed(_ context.Context, id int64, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return errors.New("no such intent")
	}
	in.Attempts++
	in.LastError = cause.Error()
	m.failedIDs = append(m.failedIDs, id)
	return nil
}

// --- Mock stage ---

type mockStage struct {
	mu        sync.Mutex
	discarded []string
}

func (m *mockStage) Discard(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded = append(m.discarded, path)
}

// --- Helpers ---

func driveURL(id string) string {
	return "https://drive.google.com/file/d/" + id + "/view"
}

func writeStaged(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
