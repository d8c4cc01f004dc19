package middleware

import (
	"errors"
	"net/http"

	"github.com/deptcms/portal/internal/app/models/dto"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/deptcms/portal/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// HandleAPIError maps err onto a status code and error response. Outside
// release mode the underlying error text is included as debugInfo.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := classify(err)

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Msg("Request failed")
	}

	if gin.Mode() != gin.ReleaseMode {
		detail.WithDebugInfo("%v", err)
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func classify(err error) (int, *dto.ErrorDetail) {
	var (
		verrs    validator.ValidationErrors
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, dto.HandleValidationError(err)

	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge,
			dto.NewErrorDetail(dto.ErrorCodePayloadTooLarge, "Upload exceeds the maximum allowed size")

	case errors.Is(err, attachment.ErrMalformedReference):
		return http.StatusUnprocessableEntity,
			dto.NewErrorDetail(dto.ErrorCodeResourceInvalid, "Stored attachment reference is malformed")

	case errors.Is(err, attachment.ErrUploadFailed):
		return http.StatusBadGateway,
			dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Attachment upload failed")

	case errors.Is(err, attachment.ErrDeleteFailed):
		return http.StatusBadGateway,
			dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Attachment removal failed, record kept")

	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, withMessage(dto.ErrorCodeResourceNotFound, "Resource not found", err)

	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, withMessage(dto.ErrorCodeResourceConflict, "Resource was modified concurrently", err)

	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, withMessage(dto.ErrorCodeResourceAlreadyExists, "Resource already exists", err)

	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		detail := withMessage(dto.ErrorCodeValidationFailed, "Validation failed", err)
		var custom *apperrors.CustomError
		if errors.As(err, &custom) {
			if field, ok := custom.Details["field"].(string); ok {
				detail.WithField(field)
			}
		}
		return http.StatusBadRequest, detail

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")

	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")

	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")

	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")

	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}

// withMessage prefers the user-facing message carried by a CustomError
func withMessage(code dto.ErrorCode, fallback string, err error) *dto.ErrorDetail {
	if msg, ok := apperrors.MessageOf(err); ok {
		return dto.NewErrorDetail(code, msg)
	}
	return dto.NewErrorDetail(code, fallback)
}
