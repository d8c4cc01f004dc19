package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const driveViewURLFormat = "https://drive.google.com/file/d/%s/view"

// DriveConfig configures the Google Drive backed store.
type DriveConfig struct {
	CredentialsFile string        // service account JSON key
	RequestTimeout  time.Duration // per-call deadline; zero leaves the caller's context alone
}

// DriveStorage stores attachments in Google Drive.
type DriveStorage struct {
	files       *drive.FilesService
	permissions *drive.PermissionsService
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewDriveStorage authenticates with a service account key and builds the store.
func NewDriveStorage(ctx context.Context, cfg DriveConfig, logger zerolog.Logger) (*DriveStorage, error) {
	keyJSON, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive credentials %s: %w", cfg.CredentialsFile, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, keyJSON, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse drive credentials: %w", err)
	}

	return NewDriveStorageWithOptions(ctx, cfg.RequestTimeout, logger, option.WithCredentials(creds))
}

// NewDriveStorageWithOptions builds the store from explicit client options.
func NewDriveStorageWithOptions(ctx context.Context, timeout time.Duration, logger zerolog.Logger, opts ...option.ClientOption) (*DriveStorage, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveStorage{
		files:       svc.Files,
		permissions: svc.Permissions,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// Create uploads a new file into meta.ParentID.
func (ds *DriveStorage) Create(ctx context.Context, r io.Reader, meta ObjectMeta) (*Object, error) {
	ctx, cancel := ds.withTimeout(ctx)
	defer cancel()

	file := &drive.File{
		Name:     meta.Name,
		MimeType: meta.ContentType,
	}
	if meta.ParentID != "" {
		file.Parents = []string{meta.ParentID}
	}

	created, err := ds.files.Create(file).
		Media(r, googleapi.ContentType(meta.ContentType)).
		Fields("id", "name", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive create %q: %w", meta.Name, err)
	}

	return toObject(created), nil
}

// GrantPublicRead adds an "anyone with the link" reader permission.
func (ds *DriveStorage) GrantPublicRead(ctx context.Context, id string) error {
	ctx, cancel := ds.withTimeout(ctx)
	defer cancel()

	_, err := ds.permissions.Create(id, &drive.Permission{Type: "anyone", Role: "reader"}).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("drive grant public read %s: %w", id, mapDriveError(err))
	}
	return nil
}

// Get fetches file metadata; a 404 is reported as ErrObjectNotFound.
func (ds *DriveStorage) Get(ctx context.Context, id string) (*Object, error) {
	ctx, cancel := ds.withTimeout(ctx)
	defer cancel()

	file, err := ds.files.Get(id).
		Fields("id", "name", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive get %s: %w", id, mapDriveError(err))
	}
	return toObject(file), nil
}

// Delete permanently removes the file; a 404 is reported as ErrObjectNotFound.
func (ds *DriveStorage) Delete(ctx context.Context, id string) error {
	ctx, cancel := ds.withTimeout(ctx)
	defer cancel()

	if err := ds.files.Delete(id).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive delete %s: %w", id, mapDriveError(err))
	}
	ds.logger.Debug().Str("objectID", id).Msg("Drive file deleted")
	return nil
}

func (ds *DriveStorage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ds.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, ds.timeout)
}

func toObject(f *drive.File) *Object {
	viewURL := f.WebViewLink
	if viewURL == "" {
		viewURL = fmt.Sprintf(driveViewURLFormat, f.Id)
	}
	return &Object{ID: f.Id, Name: f.Name, ViewURL: viewURL}
}

// mapDriveError folds Drive's 404 into ErrObjectNotFound, keeping the cause.
func mapDriveError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, apiErr.Message)
	}
	return err
}
