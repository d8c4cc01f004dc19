package attachment

import (
	"context"
	"errors"
	"fmt"

	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// Attacher is the store-facing half of the lifecycle. *Coordinator implements it.
type Attacher interface {
	Store(ctx context.Context, localPath, displayName string) (*Reference, error)
	Remove(ctx context.Context, idOrURL string) error
}

// Discarder removes staged files once a request is done with them.
type Discarder interface {
	Discard(path string)
}

// Upload is a staged file destined for one slot.
type Upload struct {
	LocalPath   string
	DisplayName string
}

// Change describes what an update does to a record's slots. Slots that are
// neither uploaded nor cleared keep their current reference.
type Change struct {
	Uploads map[string]Upload
	Clear   map[string]bool
}

// Slot describes one attachment field of T.
type Slot[T any] struct {
	Field    string
	Required bool
	Ref      func(*T) **Reference
}

// Lifecycle keeps the attachment references of records of type T consistent
// with the objects in the store.
type Lifecycle[T any] struct {
	kind    string
	slots   []Slot[T]
	ownerID func(*T) int64
	files   Attacher
	stage   Discarder
	intents IntentStore
	logger  zerolog.Logger
}

// NewLifecycle creates a Lifecycle for records of kind. intents may be nil, in
// which case objects that could not be cleaned up are only logged.
func NewLifecycle[T any](
	kind string,
	ownerID func(*T) int64,
	slots []Slot[T],
	files Attacher,
	stage Discarder,
	intents IntentStore,
	logger zerolog.Logger,
) *Lifecycle[T] {
	return &Lifecycle[T]{
		kind:    kind,
		slots:   slots,
		ownerID: ownerID,
		files:   files,
		stage:   stage,
		intents: intents,
		logger:  logger.With().Str("kind", kind).Logger(),
	}
}

// Fields lists the slot names in declaration order.
func (l *Lifecycle[T]) Fields() []string {
	fields := make([]string, len(l.slots))
	for i, s := range l.slots {
		fields[i] = s.Field
	}
	return fields
}

// Optional reports whether field is a slot that may be left empty.
func (l *Lifecycle[T]) Optional(field string) bool {
	s, ok := l.slot(field)
	return ok && !s.Required
}

func (l *Lifecycle[T]) slot(field string) (Slot[T], bool) {
	for _, s := range l.slots {
		if s.Field == field {
			return s, true
		}
	}
	return Slot[T]{}, false
}

// Create stores every upload, points rec at the stored objects and then
// persists it. When any step fails the objects stored so far are removed and
// rec is not persisted. Staged files are discarded in every case.
func (l *Lifecycle[T]) Create(ctx context.Context, rec *T, uploads map[string]Upload, persist func(context.Context, *T) error) error {
	defer l.Discard(uploads)

	if err := l.checkUnknown(uploads, nil); err != nil {
		return err
	}
	for _, s := range l.slots {
		if _, ok := uploads[s.Field]; s.Required && !ok {
			return apperrors.NewValidationError(s.Field, fmt.Sprintf("%s is required", s.Field))
		}
	}

	stored, err := l.storeAll(ctx, uploads)
	if err != nil {
		l.compensate(context.WithoutCancel(ctx), rec, stored)
		return err
	}

	for _, s := range l.slots {
		*s.Ref(rec) = stored[s.Field]
	}

	if err := persist(ctx, rec); err != nil {
		l.compensate(context.WithoutCancel(ctx), rec, stored)
		return err
	}
	return nil
}

// Update applies change to next, whose scalar fields are already set, and
// persists it. current is the record as loaded before the update.
//
// New objects are stored before anything else happens; if that fails the
// record and its old objects are left untouched. Superseded objects are
// removed only after next is persisted. A failed removal there does not fail
// the update: it is logged and recorded for the reconciler.
func (l *Lifecycle[T]) Update(ctx context.Context, current, next *T, change Change, persist func(context.Context, *T) error) error {
	defer l.Discard(change.Uploads)

	if err := l.checkUnknown(change.Uploads, change.Clear); err != nil {
		return err
	}
	for field, clear := range change.Clear {
		if !clear {
			continue
		}
		s, _ := l.slot(field)
		if s.Required {
			return apperrors.NewValidationError(field, fmt.Sprintf("%s is required and cannot be removed", field))
		}
		if _, ok := change.Uploads[field]; ok {
			return apperrors.NewValidationError(field, fmt.Sprintf("%s cannot be replaced and removed at once", field))
		}
	}

	stored, err := l.storeAll(ctx, change.Uploads)
	if err != nil {
		l.compensate(context.WithoutCancel(ctx), current, stored)
		return err
	}

	superseded := make(map[string]*Reference)
	for _, s := range l.slots {
		old := *s.Ref(current)
		switch {
		case stored[s.Field] != nil:
			*s.Ref(next) = stored[s.Field]
			superseded[s.Field] = old
		case change.Clear[s.Field]:
			*s.Ref(next) = nil
			superseded[s.Field] = old
		default:
			*s.Ref(next) = old
		}
	}

	// Once the store has been written to, cleanup runs to the end even if
	// the request goes away.
	cleanupCtx := context.WithoutCancel(ctx)

	if err := persist(ctx, next); err != nil {
		l.compensate(cleanupCtx, current, stored)
		return err
	}

	for _, s := range l.slots {
		old, ok := superseded[s.Field]
		if !ok || old == nil {
			continue
		}
		reason := ReasonSuperseded
		if change.Clear[s.Field] {
			reason = ReasonCleared
		}
		if err := l.files.Remove(cleanupCtx, old.Locator()); err != nil {
			l.logger.Error().Err(err).
				Str("field", s.Field).
				Int64("ownerID", l.ownerID(current)).
				Str("url", old.URL).
				Msg("Failed to remove superseded attachment")
			l.recordIntent(cleanupCtx, old, l.ownerID(current), reason, err)
		}
	}
	return nil
}

// Delete removes every object rec references and only then calls remove. If
// any object cannot be removed the record is kept and the error returned;
// retrying is safe because removing an absent object succeeds.
func (l *Lifecycle[T]) Delete(ctx context.Context, rec *T, remove func(context.Context) error) error {
	for _, s := range l.slots {
		ref := *s.Ref(rec)
		if ref == nil {
			continue
		}
		if err := l.files.Remove(ctx, ref.Locator()); err != nil {
			l.logger.Error().Err(err).
				Str("field", s.Field).
				Int64("ownerID", l.ownerID(rec)).
				Msg("Attachment removal failed, keeping record")
			return err
		}
	}
	return remove(ctx)
}

func (l *Lifecycle[T]) checkUnknown(uploads map[string]Upload, clear map[string]bool) error {
	for field := range uploads {
		if _, ok := l.slot(field); !ok {
			return apperrors.NewValidationError(field, fmt.Sprintf("unknown attachment field %q", field))
		}
	}
	for field := range clear {
		if _, ok := l.slot(field); !ok {
			return apperrors.NewValidationError(field, fmt.Sprintf("unknown attachment field %q", field))
		}
	}
	return nil
}

// storeAll stores uploads in slot order and returns what was stored, including
// on failure so the caller can compensate.
func (l *Lifecycle[T]) storeAll(ctx context.Context, uploads map[string]Upload) (map[string]*Reference, error) {
	stored := make(map[string]*Reference, len(uploads))
	for _, s := range l.slots {
		up, ok := uploads[s.Field]
		if !ok {
			continue
		}
		ref, err := l.files.Store(ctx, up.LocalPath, up.DisplayName)
		if err != nil {
			return stored, err
		}
		stored[s.Field] = ref
	}
	return stored, nil
}

// compensate removes objects stored by a request that did not complete. ctx
// must not be tied to the request.
func (l *Lifecycle[T]) compensate(ctx context.Context, owner *T, stored map[string]*Reference) {
	for field, ref := range stored {
		if err := l.files.Remove(ctx, ref.Locator()); err != nil {
			l.logger.Error().Err(err).
				Str("field", field).
				Str("fileID", ref.FileID).
				Msg("Failed to remove attachment of incomplete write")
			l.recordIntent(ctx, ref, l.ownerID(owner), ReasonCompensation, err)
		}
	}
}

func (l *Lifecycle[T]) recordIntent(ctx context.Context, ref *Reference, ownerID int64, reason string, cause error) {
	if l.intents == nil {
		return
	}
	if errors.Is(cause, ErrMalformedReference) {
		// Nothing a retry could resolve.
		return
	}
	fileID, err := ref.ID()
	if err != nil {
		return
	}
	intent := CleanupIntent{
		FileID:    fileID,
		OwnerKind: l.kind,
		OwnerID:   ownerID,
		Reason:    reason,
		LastError: cause.Error(),
	}
	if err := l.intents.Record(ctx, intent); err != nil {
		l.logger.Error().Err(err).Str("fileID", fileID).Msg("Failed to record cleanup intent")
		return
	}
	cleanupIntentsTotal.WithLabelValues("recorded").Inc()
}

// Discard removes staged uploads that will not be passed to Create or Update.
func (l *Lifecycle[T]) Discard(uploads map[string]Upload) {
	if l.stage == nil {
		return
	}
	for _, up := range uploads {
		if up.LocalPath != "" {
			l.stage.Discard(up.LocalPath)
		}
	}
}
