package attachment

import (
	"context"
	"errors"
	"testing"

	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/deptcms/portal/internal/pkg/filestorage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	ID    int64
	Name  string
	Photo *Reference
	Proof *Reference
}

func newProfileLifecycle(store *mockStore, intents IntentStore, stage Discarder) *Lifecycle[profile] {
	return NewLifecycle(
		"profile",
		func(p *profile) int64 { return p.ID },
		[]Slot[profile]{
			{Field: "photo", Required: true, Ref: func(p *profile) **Reference { return &p.Photo }},
			{Field: "proof", Ref: func(p *profile) **Reference { return &p.Proof }},
		},
		NewCoordinator(store, "folder", zerolog.Nop()),
		stage,
		intents,
		zerolog.Nop(),
	)
}

// saved mimics a table row: persist copies the record into it.
type saved struct {
	row   *profile
	calls int
	err   error
}

func (s *saved) persist(_ context.Context, p *profile) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	cp := *p
	if cp.ID == 0 {
		cp.ID = 7
		p.ID = 7
	}
	s.row = &cp
	return nil
}

func TestLifecycle_Fields(t *testing.T) {
	lc := newProfileLifecycle(newMockStore(), nil, nil)
	assert.Equal(t, []string{"photo", "proof"}, lc.Fields())
	assert.False(t, lc.Optional("photo"))
	assert.True(t, lc.Optional("proof"))
	assert.False(t, lc.Optional("unknown"))
}

func TestLifecycle_Create(t *testing.T) {
	store := newMockStore("ABC123")
	stage := &mockStage{}
	lc := newProfileLifecycle(store, nil, stage)
	db := &saved{}
	path := writeStaged(t, "photo.jpg", "jpeg")

	rec := &profile{Name: "Dr. Rao"}
	err := lc.Create(context.Background(), rec, map[string]Upload{
		"photo": {LocalPath: path, DisplayName: "photo.jpg"},
	}, db.persist)
	require.NoError(t, err)

	require.NotNil(t, db.row)
	require.NotNil(t, db.row.Photo)
	assert.Equal(t, "ABC123", db.row.Photo.FileID)
	assert.Equal(t, "https://drive.google.com/file/d/ABC123/view", db.row.Photo.URL)
	assert.Nil(t, db.row.Proof, "absent optional slot stays null")
	assert.True(t, store.has("ABC123"))
	assert.Equal(t, []string{path}, stage.discarded)
}

func TestLifecycle_Create_RequiresRequiredSlot(t *testing.T) {
	store := newMockStore()
	stage := &mockStage{}
	lc := newProfileLifecycle(store, nil, stage)
	db := &saved{}
	proof := writeStaged(t, "proof.pdf", "pdf")

	err := lc.Create(context.Background(), &profile{}, map[string]Upload{
		"proof": {LocalPath: proof, DisplayName: "proof.pdf"},
	}, db.persist)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, store.createCalls)
	assert.Zero(t, db.calls)
	assert.Equal(t, []string{proof}, stage.discarded)
}

func TestLifecycle_Create_RejectsUnknownSlot(t *testing.T) {
	lc := newProfileLifecycle(newMockStore(), nil, nil)
	err := lc.Create(context.Background(), &profile{}, map[string]Upload{
		"photo":  {LocalPath: writeStaged(t, "a.jpg", "a"), DisplayName: "a"},
		"resume": {LocalPath: writeStaged(t, "b.pdf", "b"), DisplayName: "b"},
	}, (&saved{}).persist)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestLifecycle_Create_UploadFailure(t *testing.T) {
	store := newMockStore()
	store.createFunc = func(filestorage.ObjectMeta) (*filestorage.Object, error) {
		return nil, errors.New("drive unavailable")
	}
	stage := &mockStage{}
	lc := newProfileLifecycle(store, nil, stage)
	db := &saved{}
	path := writeStaged(t, "photo.jpg", "jpeg")

	err := lc.Create(context.Background(), &profile{}, map[string]Upload{
		"photo": {LocalPath: path, DisplayName: "photo.jpg"},
	}, db.persist)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Zero(t, db.calls, "record must not be persisted")
	assert.Equal(t, []string{path}, stage.discarded)
}

func TestLifecycle_Create_SecondUploadFailureRemovesFirst(t *testing.T) {
	store := newMockStore()
	store.createFunc = func(meta filestorage.ObjectMeta) (*filestorage.Object, error) {
		if meta.Name == "proof.pdf" {
			return nil, errors.New("too large")
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		obj := &filestorage.Object{ID: "P1", ViewURL: driveURL("P1")}
		store.objects["P1"] = obj
		return obj, nil
	}
	lc := newProfileLifecycle(store, nil, nil)
	db := &saved{}

	err := lc.Create(context.Background(), &profile{}, map[string]Upload{
		"photo": {LocalPath: writeStaged(t, "photo.jpg", "a"), DisplayName: "photo.jpg"},
		"proof": {LocalPath: writeStaged(t, "proof.pdf", "b"), DisplayName: "proof.pdf"},
	}, db.persist)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Zero(t, db.calls)
	assert.False(t, store.has("P1"), "stored photo must be compensated")
}

func TestLifecycle_Create_PersistFailureRemovesUploads(t *testing.T) {
	store := newMockStore("ABC123")
	lc := newProfileLifecycle(store, nil, nil)
	db := &saved{err: errors.New("unique violation")}

	err := lc.Create(context.Background(), &profile{}, map[string]Upload{
		"photo": {LocalPath: writeStaged(t, "photo.jpg", "a"), DisplayName: "photo.jpg"},
	}, db.persist)
	assert.EqualError(t, err, "unique violation")
	assert.False(t, store.has("ABC123"))
}

func TestLifecycle_Create_CompensationFailureRecordsIntent(t *testing.T) {
	store := newMockStore("ABC123")
	store.deleteFunc = func(string) error { return errors.New("backend error") }
	intents := newMockIntentStore()
	lc := newProfileLifecycle(store, intents, nil)

	err := lc.Create(context.Background(), &profile{}, map[string]Upload{
		"photo": {LocalPath: writeStaged(t, "photo.jpg", "a"), DisplayName: "photo.jpg"},
	}, (&saved{err: errors.New("db down")}).persist)
	require.Error(t, err)

	require.Len(t, intents.recorded, 1)
	assert.Equal(t, "ABC123", intents.recorded[0].FileID)
	assert.Equal(t, ReasonCompensation, intents.recorded[0].Reason)
	assert.Equal(t, "profile", intents.recorded[0].OwnerKind)
}

func TestLifecycle_Update_ReplacesAttachment(t *testing.T) {
	store := newMockStore("NEW1")
	store.put("OLD1")
	stage := &mockStage{}
	lc := newProfileLifecycle(store, nil, stage)
	db := &saved{}

	current := &profile{ID: 3, Name: "old", Photo: &Reference{URL: driveURL("OLD1")}}
	next := &profile{ID: 3, Name: "new"}
	path := writeStaged(t, "new.jpg", "new")

	err := lc.Update(context.Background(), current, next, Change{
		Uploads: map[string]Upload{"photo": {LocalPath: path, DisplayName: "new.jpg"}},
	}, db.persist)
	require.NoError(t, err)

	require.NotNil(t, db.row.Photo)
	assert.Equal(t, "NEW1", db.row.Photo.FileID)
	assert.Equal(t, "new", db.row.Name)
	assert.True(t, store.has("NEW1"))
	assert.False(t, store.has("OLD1"))
	assert.Equal(t, []string{path}, stage.discarded)

	// NEW1 was created before OLD1 was deleted.
	require.Len(t, store.createCalls, 1)
	assert.Equal(t, []string{"OLD1"}, store.deleteCalls)
}

func TestLifecycle_Update_KeepsUntouchedSlots(t *testing.T) {
	store := newMockStore()
	store.put("PH1")
	store.put("PR1")
	lc := newProfileLifecycle(store, nil, nil)
	db := &saved{}

	current := &profile{ID: 3, Photo: &Reference{FileID: "PH1", URL: driveURL("PH1")}, Proof: &Reference{FileID: "PR1", URL: driveURL("PR1")}}
	next := &profile{ID: 3, Name: "renamed"}

	require.NoError(t, lc.Update(context.Background(), current, next, Change{}, db.persist))
	assert.Equal(t, current.Photo, db.row.Photo)
	assert.Equal(t, current.Proof, db.row.Proof)
	assert.Empty(t, store.createCalls)
	assert.Empty(t, store.deleteCalls)
}

func TestLifecycle_Update_UploadFailureLeavesRecord(t *testing.T) {
	store := newMockStore()
	store.put("OLD1")
	store.createFunc = func(filestorage.ObjectMeta) (*filestorage.Object, error) {
		return nil, errors.New("drive unavailable")
	}
	stage := &mockStage{}
	lc := newProfileLifecycle(store, nil, stage)
	db := &saved{}

	current := &profile{ID: 3, Photo: &Reference{URL: driveURL("OLD1")}}
	path := writeStaged(t, "new.jpg", "new")
	err := lc.Update(context.Background(), current, &profile{ID: 3}, Change{
		Uploads: map[string]Upload{"photo": {LocalPath: path, DisplayName: "new.jpg"}},
	}, db.persist)

	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Zero(t, db.calls)
	assert.True(t, store.has("OLD1"))
	assert.Empty(t, store.deleteCalls)
	assert.Equal(t, driveURL("OLD1"), current.Photo.URL)
	assert.Equal(t, []string{path}, stage.discarded)
}

func TestLifecycle_Update_PersistFailureRemovesNewUpload(t *testing.T) {
	store := newMockStore("NEW1")
	store.put("OLD1")
	lc := newProfileLifecycle(store, nil, nil)
	conflict := apperrors.NewConflictError("stale version")

	current := &profile{ID: 3, Photo: &Reference{URL: driveURL("OLD1")}}
	err := lc.Update(context.Background(), current, &profile{ID: 3}, Change{
		Uploads: map[string]Upload{"photo": {LocalPath: writeStaged(t, "n.jpg", "n"), DisplayName: "n.jpg"}},
	}, (&saved{err: conflict}).persist)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.False(t, store.has("NEW1"))
	assert.True(t, store.has("OLD1"))
}

func TestLifecycle_Update_RemovalFailureDoesNotFailUpdate(t *testing.T) {
	store := newMockStore("NEW1")
	store.put("OLD1")
	store.deleteFunc = func(string) error { return errors.New("backend error") }
	intents := newMockIntentStore()
	lc := newProfileLifecycle(store, intents, nil)
	db := &saved{}

	current := &profile{ID: 3, Photo: &Reference{URL: driveURL("OLD1")}}
	err := lc.Update(context.Background(), current, &profile{ID: 3}, Change{
		Uploads: map[string]Upload{"photo": {LocalPath: writeStaged(t, "n.jpg", "n"), DisplayName: "n.jpg"}},
	}, db.persist)
	require.NoError(t, err)

	assert.Equal(t, "NEW1", db.row.Photo.FileID)
	require.Len(t, intents.recorded, 1)
	assert.Equal(t, CleanupIntent{
		ID:        1,
		FileID:    "OLD1",
		OwnerKind: "profile",
		OwnerID:   3,
		Reason:    ReasonSuperseded,
		LastError: intents.recorded[0].LastError,
	}, intents.recorded[0])
	assert.Contains(t, intents.recorded[0].LastError, "backend error")
}

func TestLifecycle_Update_CancelledRequestStillRemovesSuperseded(t *testing.T) {
	store := newMockStore("NEW1")
	store.put("OLD1")
	lc := newProfileLifecycle(store, newMockIntentStore(), nil)
	db := &saved{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	persist := func(ctx context.Context, p *profile) error {
		err := db.persist(ctx, p)
		cancel()
		return err
	}

	current := &profile{ID: 3, Photo: &Reference{URL: driveURL("OLD1")}}
	err := lc.Update(ctx, current, &profile{ID: 3}, Change{
		Uploads: map[string]Upload{"photo": {LocalPath: writeStaged(t, "n.jpg", "n"), DisplayName: "n.jpg"}},
	}, persist)
	require.NoError(t, err)

	assert.Equal(t, "NEW1", db.row.Photo.FileID)
	assert.False(t, store.has("OLD1"))
}

func TestLifecycle_Update_CancelledRequestRecordsIntent(t *testing.T) {
	store := newMockStore("NEW1")
	store.put("OLD1")
	store.deleteFunc = func(string) error { return errors.New("backend error") }
	intents := newMockIntentStore()
	lc := newProfileLifecycle(store, intents, nil)
	db := &saved{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	persist := func(ctx context.Context, p *profile) error {
		err := db.persist(ctx, p)
		cancel()
		return err
	}

	current := &profile{ID: 3, Photo: &Reference{URL: driveURL("OLD1")}}
	err := lc.Update(ctx, current, &profile{ID: 3}, Change{
		Uploads: map[string]Upload{"photo": {LocalPath: writeStaged(t, "n.jpg", "n"), DisplayName: "n.jpg"}},
	}, persist)
	require.NoError(t, err)

	require.Len(t, intents.recorded, 1)
	assert.Equal(t, "OLD1", intents.recorded[0].FileID)
	assert.Equal(t, ReasonSuperseded, intents.recorded[0].Reason)
	assert.Contains(t, intents.recorded[0].LastError, "backend error")
}

func TestLifecycle_Create_CancelledPersistStillCompensates(t *testing.T) {
	store := newMockStore("ABC123")
	lc := newProfileLifecycle(store, newMockIntentStore(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	persist := func(ctx context.Context, _ *profile) error {
		cancel()
		return ctx.Err()
	}

	err := lc.Create(ctx, &profile{}, map[string]Upload{
		"photo": {LocalPath: writeStaged(t, "photo.jpg", "a"), DisplayName: "photo.jpg"},
	}, persist)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.has("ABC123"))
}

func TestLifecycle_Update_ClearOptionalSlot(t *testing.T) {
	store := newMockStore()
	store.put("PR1")
	lc := newProfileLifecycle(store, nil, nil)
	db := &saved{}

	current := &profile{ID: 3, Photo: &Reference{FileID: "PH1", URL: driveURL("PH1")}, Proof: &Reference{FileID: "PR1", URL: driveURL("PR1")}}
	err := lc.Update(context.Background(), current, &profile{ID: 3}, Change{
		Clear: map[string]bool{"proof": true},
	}, db.persist)
	require.NoError(t, err)

	assert.Nil(t, db.row.Proof)
	assert.NotNil(t, db.row.Photo)
	assert.False(t, store.has("PR1"))
}

func TestLifecycle_Update_CannotClearRequiredSlot(t *testing.T) {
	store := newMockStore()
	lc := newProfileLifecycle(store, nil, nil)
	db := &saved{}

	current := &profile{ID: 3, Photo: &Reference{FileID: "PH1", URL: driveURL("PH1")}}
	err := lc.Update(context.Background(), current, &profile{ID: 3}, Change{
		Clear: map[string]bool{"photo": true},
	}, db.persist)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Zero(t, db.calls)
}

func TestLifecycle_Update_CannotReplaceAndClear(t *testing.T) {
	store := newMockStore()
	lc := newProfileLifecycle(store, nil, nil)

	err := lc.Update(context.Background(), &profile{ID: 3}, &profile{ID: 3}, Change{
		Uploads: map[string]Upload{"proof": {LocalPath: writeStaged(t, "p.pdf", "p"), DisplayName: "p.pdf"}},
		Clear:   map[string]bool{"proof": true},
	}, (&saved{}).persist)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, store.createCalls)
}

func TestLifecycle_Delete(t *testing.T) {
	store := newMockStore()
	store.put("PH1")
	store.put("PR1")
	lc := newProfileLifecycle(store, nil, nil)

	var order []string
	store.deleteFunc = func(id string) error {
		order = append(order, "store:"+id)
		store.mu.Lock()
		delete(store.objects, id)
		store.mu.Unlock()
		return nil
	}

	rec := &profile{ID: 3, Photo: &Reference{URL: driveURL("PH1")}, Proof: &Reference{FileID: "PR1"}}
	err := lc.Delete(context.Background(), rec, func(context.Context) error {
		order = append(order, "db")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"store:PH1", "store:PR1", "db"}, order)
}

func TestLifecycle_Delete_MissingRemoteStillDeletes(t *testing.T) {
	store := newMockStore()
	lc := newProfileLifecycle(store, nil, nil)

	removed := false
	rec := &profile{ID: 3, Photo: &Reference{URL: driveURL("GONE1")}}
	err := lc.Delete(context.Background(), rec, func(context.Context) error {
		removed = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, store.deleteCalls)
}

func TestLifecycle_Delete_RemovalFailureKeepsRecord(t *testing.T) {
	store := newMockStore()
	store.put("PH1")
	store.deleteFunc = func(string) error { return errors.New("backend error") }
	lc := newProfileLifecycle(store, nil, nil)

	removed := false
	err := lc.Delete(context.Background(), &profile{ID: 3, Photo: &Reference{FileID: "PH1"}}, func(context.Context) error {
		removed = true
		return nil
	})
	assert.ErrorIs(t, err, ErrDeleteFailed)
	assert.False(t, removed)
}

func TestLifecycle_Delete_MalformedReferenceKeepsRecord(t *testing.T) {
	lc := newProfileLifecycle(newMockStore(), nil, nil)

	removed := false
	err := lc.Delete(context.Background(), &profile{ID: 3, Photo: &Reference{URL: "https://example.com/x.png"}}, func(context.Context) error {
		removed = true
		return nil
	})
	assert.ErrorIs(t, err, ErrMalformedReference)
	assert.False(t, removed)
}

func TestLifecycle_Delete_NullOptionalSlot(t *testing.T) {
	store := newMockStore()
	store.put("PH1")
	lc := newProfileLifecycle(store, nil, nil)

	err := lc.Delete(context.Background(), &profile{ID: 3, Photo: &Reference{FileID: "PH1"}}, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"PH1"}, store.getCalls, "null proof makes no store call")
}
