package controllers

import (
	"context"
	"net/http"

	"github.com/deptcms/portal/internal/app/models/dto"
	"github.com/deptcms/portal/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoginService authenticates admins. *services.AuthService implements it.
type LoginService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
}

// AuthController handles admin authentication
type AuthController struct {
	authService LoginService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService LoginService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Login exchanges admin credentials for a bearer token.
// POST /api/v1/auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	authResponse, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(authResponse))
}

// Me returns the identity carried by the caller's token.
// GET /api/v1/auth/me
func (c *AuthController) Me(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"adminId": ctx.GetInt64(middleware.ContextAdminID),
		"email":   ctx.GetString(middleware.ContextEmail),
		"role":    ctx.GetString(middleware.ContextRole),
	}))
}
