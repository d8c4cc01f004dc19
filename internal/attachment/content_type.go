package attachment

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultContentType = "application/octet-stream"

// DetectContentType resolves a content type for a staged file: extension
// lookup first, then content sniffing, then the opaque binary type.
func DetectContentType(path string) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		return byExt
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil || detected == nil {
		return defaultContentType
	}
	return detected.String()
}
