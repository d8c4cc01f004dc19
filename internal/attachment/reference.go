package attachment

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Known view-URL shapes, tried in order. The first capture group is the id.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/folders/([A-Za-z0-9_-]+)`),
}

const (
	driveDomainMarker = "drive.google.com"
	drivePreviewURL   = "https://drive.google.com/thumbnail?id=%s&sz=w1000"
)

// ExtractFileID returns the store file id embedded in a view URL.
func ExtractFileID(rawURL string) (string, error) {
	for _, pattern := range referencePatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrMalformedReference, rawURL)
}

// looksLikeURL reports whether s is a locator rather than a bare id. Store
// ids never contain path or query separators.
func looksLikeURL(s string) bool {
	return strings.Contains(s, "://") || strings.ContainsAny(s, "/?&")
}

// NormalizeID accepts either a bare file id or a view URL and returns the id.
func NormalizeID(idOrURL string) (string, error) {
	idOrURL = strings.TrimSpace(idOrURL)
	if idOrURL == "" {
		return "", fmt.Errorf("%w: empty locator", ErrMalformedReference)
	}
	if looksLikeURL(idOrURL) {
		return ExtractFileID(idOrURL)
	}
	return idOrURL, nil
}

// Reference links a record field to an object in the attachment store.
// FileID is written alongside URL; rows persisted before that only carry URL
// and get their id re-derived on demand.
type Reference struct {
	FileID string `json:"fileId,omitempty"`
	URL    string `json:"url"`
	Name   string `json:"name,omitempty"`
}

// ID returns the stored file id, falling back to extracting it from URL.
func (r *Reference) ID() (string, error) {
	if r.FileID != "" {
		return r.FileID, nil
	}
	return ExtractFileID(r.URL)
}

// Locator is what Remove should be called with: the id when known, else the URL.
func (r *Reference) Locator() string {
	if r.FileID != "" {
		return r.FileID
	}
	return r.URL
}

// PreviewURL is the link used by the public site to render a thumbnail. It
// never fails: references that cannot be parsed are shown as their raw URL.
func (r *Reference) PreviewURL() string {
	if r == nil {
		return ""
	}
	return DisplayURL(r.URL)
}

// MarshalJSON adds the derived previewUrl to the stored fields.
func (r Reference) MarshalJSON() ([]byte, error) {
	type plain Reference
	return json.Marshal(struct {
		plain
		PreviewURL string `json:"previewUrl,omitempty"`
	}{plain: plain(r), PreviewURL: r.PreviewURL()})
}

// DisplayURL turns a Drive view URL into a thumbnail URL. Anything it cannot
// parse, and URLs from other stores, are returned unchanged.
func DisplayURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, driveDomainMarker) {
		return rawURL
	}
	id, err := ExtractFileID(rawURL)
	if err != nil {
		return rawURL
	}
	return fmt.Sprintf(drivePreviewURL, url.QueryEscape(id))
}
