package attachment

import "errors"

// Error kinds of the attachment lifecycle. Returned errors wrap one of these
// together with the underlying cause, so both errors.Is checks work.
var (
	// ErrMalformedReference means a URL matched none of the known store shapes.
	ErrMalformedReference = errors.New("malformed attachment reference")
	// ErrUploadFailed means the store rejected or failed the create call.
	ErrUploadFailed = errors.New("attachment upload failed")
	// ErrDeleteFailed means the store failed the delete call.
	ErrDeleteFailed = errors.New("attachment delete failed")
	// ErrPermissionGrantFailed means the object was stored but not made public.
	ErrPermissionGrantFailed = errors.New("attachment permission grant failed")
)
