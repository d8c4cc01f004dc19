package middleware

import (
	"errors"
	"net/http"

	"github.com/deptcms/portal/internal/app/models/dto"
	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/deptcms/portal/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

// Context keys set by AdminRequired
const (
	ContextAdminID = "adminID"
	ContextEmail   = "email"
	ContextRole    = "role"
)

// TokenValidator validates bearer tokens. *auth.JWTService implements it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware guards the admin console routes
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// AdminRequired rejects requests without a valid admin bearer token
func (m *AuthMiddleware) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Authorization header must be 'Bearer <token>'")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.tokens.ValidateToken(tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			details := "Invalid token"
			if errors.Is(err, apperrors.ErrTokenExpired) {
				errorCode = dto.ErrorCodeExpiredToken
				details = "Token has expired"
			}

			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed").WithDetails(details)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		if claims.Role != auth.RoleAdmin {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("Admin role required")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set(ContextAdminID, claims.AdminID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}
