package controllers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/deptcms/portal/internal/app/models/dto"
	"github.com/deptcms/portal/internal/middleware"
	"github.com/deptcms/portal/internal/pkg/filestorage"
	"github.com/gin-gonic/gin"
)

// Content types rendered in the browser; everything else is downloaded.
// SVG is left out because it can carry script.
var inlineContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"text/plain":      true,
}

// PublicObjects opens objects that were granted public read.
// *filestorage.LocalStorage implements it.
type PublicObjects interface {
	OpenPublic(id string) (io.ReadCloser, filestorage.ObjectMeta, error)
}

// StorageController serves objects of the local attachment store so that
// their view URLs resolve the way Drive links do
type StorageController struct {
	objects PublicObjects
}

// NewStorageController creates a new StorageController
func NewStorageController(objects PublicObjects) *StorageController {
	return &StorageController{objects: objects}
}

// View streams one public object. Uploads are untrusted, so they are served
// sandboxed and only known passive types are shown inline.
// GET /storage/file/d/:id/view
func (c *StorageController) View(ctx *gin.Context) {
	rc, meta, err := c.objects.OpenPublic(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, filestorage.ErrObjectNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "File not found")))
			return
		}
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer rc.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	disposition := "attachment"
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && inlineContentTypes[strings.ToLower(mediaType)] {
		disposition = "inline"
	} else {
		contentType = "application/octet-stream"
	}

	headers := map[string]string{
		"Content-Disposition":     contentDisposition(disposition, meta.Name),
		"Content-Security-Policy": "sandbox; default-src 'none'; img-src 'self'; style-src 'unsafe-inline'",
		"X-Content-Type-Options":  "nosniff",
	}
	ctx.DataFromReader(http.StatusOK, -1, contentType, rc, headers)
}

func contentDisposition(disposition, name string) string {
	if name == "" {
		return disposition
	}
	if v := mime.FormatMediaType(disposition, map[string]string{"filename": name}); v != "" {
		return v
	}
	return disposition
}
