package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/deptcms/portal/internal/app/models/dto"
	"github.com/gin-gonic/gin"
)

// Pinger checks a backing service. *pgxpool.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports service health
type HealthController struct {
	db Pinger
}

// NewHealthController creates a new HealthController
func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// Health answers 200 when the database is reachable and 503 otherwise.
// GET /api/v1/health
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.db.Ping(pingCtx); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unavailable").
			WithSeverity(dto.ErrorSeverityCritical)
		ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(errorDetail))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
}
