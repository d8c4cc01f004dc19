// Package staging holds inbound uploads on local disk until they are forwarded
// to the attachment store.
package staging

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Stage is a shared directory of staged uploads. Every staged file gets a
// unique name so concurrent requests never collide.
type Stage struct {
	dir    string
	logger zerolog.Logger
}

// New ensures dir exists and returns a Stage rooted there.
func New(dir string, logger zerolog.Logger) (*Stage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create stage directory %s: %w", dir, err)
	}
	return &Stage{dir: filepath.Clean(dir), logger: logger}, nil
}

// Dir returns the stage root.
func (s *Stage) Dir() string {
	return s.dir
}

// SaveFileHeader copies an uploaded multipart file onto the stage and returns its path.
func (s *Stage) SaveFileHeader(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return s.Save(src, fh.Filename)
}

// Save writes r to a uniquely named stage file derived from originalName.
func (s *Stage) Save(r io.Reader, originalName string) (string, error) {
	dstPath := filepath.Join(s.dir, stagedName(originalName))

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		s.Discard(dstPath)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := dst.Close(); err != nil {
		s.Discard(dstPath)
		return "", fmt.Errorf("failed to close staged file: %w", err)
	}

	s.logger.Debug().Str("original", originalName).Str("path", dstPath).Msg("Upload staged")
	return dstPath, nil
}

// Discard removes a staged file. Failures are only logged.
func (s *Stage) Discard(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove staged file")
	}
}

// stagedName builds "<unix-nanos>-<random>-<sanitised base name>".
func stagedName(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "upload"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + random + "-" + base
}
