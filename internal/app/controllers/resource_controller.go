package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/deptcms/portal/internal/app/models/dto"
	"github.com/deptcms/portal/internal/app/repositories"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/middleware"
	"github.com/deptcms/portal/internal/pkg/helpers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ResourceService is the content service behind a ResourceController.
// *services.ResourceService implements it.
type ResourceService[T any] interface {
	Kind() string
	Fields() []string
	Optional(field string) bool
	List(ctx context.Context, params repositories.ListParams) ([]*T, int64, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, rec *T, uploads map[string]attachment.Upload) error
	Update(ctx context.Context, id int64, version int, next *T, change attachment.Change) (*T, error)
	Delete(ctx context.Context, id int64, version int) error
}

// Stager puts uploaded files on local disk. *staging.Stage implements it.
type Stager interface {
	SaveFileHeader(fh *multipart.FileHeader) (string, error)
	Discard(path string)
}

// ResourceController exposes CRUD over one content type. Create and update
// take multipart forms: scalar fields as values, attachments as file parts
// named after their slot, and remove_<slot>=true to clear an optional slot.
type ResourceController[T any] struct {
	service ResourceService[T]
	stage   Stager
	logger  zerolog.Logger
}

// NewResourceController creates a controller for service
func NewResourceController[T any](service ResourceService[T], stage Stager, logger zerolog.Logger) *ResourceController[T] {
	return &ResourceController[T]{
		service: service,
		stage:   stage,
		logger:  logger.With().Str("controller", service.Kind()).Logger(),
	}
}

// List returns one page of records. Query parameters other than page and
// size are passed on as filters.
func (c *ResourceController[T]) List(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	filters := make(map[string]string)
	for key, values := range ctx.Request.URL.Query() {
		if key == "page" || key == "size" || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}

	items, total, err := c.service.List(ctx.Request.Context(), repositories.ListParams{
		Page:    page,
		Size:    size,
		Filters: filters,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[*T]{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}

// Get returns one record
func (c *ResourceController[T]) Get(ctx *gin.Context) {
	id, ok := c.parseID(ctx)
	if !ok {
		return
	}

	rec, err := c.service.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(rec))
}

// Create stores a new record with its attachments
func (c *ResourceController[T]) Create(ctx *gin.Context) {
	var rec T
	if err := ctx.ShouldBind(&rec); err != nil {
		c.bindError(ctx, err)
		return
	}

	uploads, err := c.stageUploads(ctx)
	if err != nil {
		c.bindError(ctx, err)
		return
	}

	if err := c.service.Create(ctx.Request.Context(), &rec, uploads); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(&rec))
}

// Update replaces a record. The form must carry the version the client last read.
func (c *ResourceController[T]) Update(ctx *gin.Context) {
	id, ok := c.parseID(ctx)
	if !ok {
		return
	}

	var next T
	if err := ctx.ShouldBind(&next); err != nil {
		c.bindError(ctx, err)
		return
	}

	version, err := strconv.Atoi(ctx.PostForm("version"))
	if err != nil || version < 1 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "version is required").
			WithField("version").
			WithDetails("version must be the positive integer returned with the record")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	change := attachment.Change{Clear: make(map[string]bool)}
	for _, field := range c.service.Fields() {
		if remove, _ := strconv.ParseBool(ctx.PostForm("remove_" + field)); remove {
			change.Clear[field] = true
		}
	}

	change.Uploads, err = c.stageUploads(ctx)
	if err != nil {
		c.bindError(ctx, err)
		return
	}

	updated, err := c.service.Update(ctx.Request.Context(), id, version, &next, change)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(updated))
}

// Delete removes a record and its attachments. An optional version query
// parameter makes the delete fail if the record changed since it was read.
func (c *ResourceController[T]) Delete(ctx *gin.Context) {
	id, ok := c.parseID(ctx)
	if !ok {
		return
	}

	version := 0
	if v := ctx.Query("version"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid version").WithField("version")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		version = parsed
	}

	if err := c.service.Delete(ctx.Request.Context(), id, version); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{
		Message: c.service.Kind() + " deleted",
	}))
}

// stageUploads copies the file part of every slot onto the stage. On failure
// anything already staged is discarded.
func (c *ResourceController[T]) stageUploads(ctx *gin.Context) (map[string]attachment.Upload, error) {
	uploads := make(map[string]attachment.Upload)
	for _, field := range c.service.Fields() {
		fh, err := ctx.FormFile(field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				continue
			}
			c.discard(uploads)
			return nil, err
		}

		path, err := c.stage.SaveFileHeader(fh)
		if err != nil {
			c.discard(uploads)
			return nil, err
		}
		uploads[field] = attachment.Upload{LocalPath: path, DisplayName: fh.Filename}
	}
	return uploads, nil
}

func (c *ResourceController[T]) discard(uploads map[string]attachment.Upload) {
	for _, up := range uploads {
		c.stage.Discard(up.LocalPath)
	}
}

func (c *ResourceController[T]) parseID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+c.service.Kind()+" ID").
			WithField("id").
			WithDetails("ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// bindError answers a request whose form could not be read or validated
func (c *ResourceController[T]) bindError(ctx *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Debug().Err(err).Msg("Rejected request form")
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}
