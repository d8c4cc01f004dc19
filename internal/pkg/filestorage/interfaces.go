package filestorage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Get and Delete when the store has no object
// with the requested id. Every other failure is reported as-is.
var ErrObjectNotFound = errors.New("object not found")

// ObjectMeta is the metadata submitted together with the bytes of a new object.
type ObjectMeta struct {
	Name        string
	ContentType string
	ParentID    string // folder the object is created in; empty means store root
}

// Object describes an object held by the store.
type Object struct {
	ID      string
	Name    string
	ViewURL string // link-viewable URL that embeds ID
}

// Store is the remote object storage used for attachments.
type Store interface {
	// Create uploads the bytes read from r and returns the new object.
	Create(ctx context.Context, r io.Reader, meta ObjectMeta) (*Object, error)

	// GrantPublicRead makes the object viewable by anyone holding its link.
	GrantPublicRead(ctx context.Context, id string) error

	// Get returns the object or ErrObjectNotFound.
	Get(ctx context.Context, id string) (*Object, error)

	// Delete removes the object or returns ErrObjectNotFound.
	Delete(ctx context.Context, id string) error
}
