package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/wmsconnector/internal/infrastructure/logger"
	"github.com/erp/wmsconnector/internal/infrastructure/scheduler"
	"github.com/erp/wmsconnector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DatabasePinger checks the ERP database
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// RemoteHealthChecker checks the WMS with the configured credentials
type RemoteHealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// JobStatusProvider reports scheduled job state
type JobStatusProvider interface {
	Status() []scheduler.JobState
}

// HealthHandler serves liveness, the WMS connection test and job status
type HealthHandler struct {
	BaseHandler
	db     DatabasePinger
	remote RemoteHealthChecker
	jobs   JobStatusProvider
	now    func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db DatabasePinger, remote RemoteHealthChecker, jobs JobStatusProvider) *HealthHandler {
	return &HealthHandler{db: db, remote: remote, jobs: jobs, now: time.Now}
}

// RegisterRoutes mounts the authenticated endpoints
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/wms/health", h.RemoteHealth)
	rg.GET("/jobs", h.Jobs)
}

// Liveness reports whether the database answers. Unauthenticated.
func (h *HealthHandler) Liveness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{
			Status:   "unhealthy",
			Database: "error",
			Time:     h.now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:   "healthy",
		Database: "ok",
		Time:     h.now().UTC(),
	})
}

// RemoteHealth is the "test connection" action: it calls the WMS health endpoint
func (h *HealthHandler) RemoteHealth(c *gin.Context) {
	if err := h.remote.CheckHealth(c.Request.Context()); err != nil {
		logger.GetGinLogger(c).Warn("WMS connection test failed", zap.Error(err))
		h.HandleSyncError(c, err)
		return
	}
	h.Success(c, dto.HealthResponse{
		Status: "healthy",
		WMS:    "ok",
		Time:   h.now().UTC(),
	})
}

// Jobs lists the scheduled jobs and their last runs
func (h *HealthHandler) Jobs(c *gin.Context) {
	h.Success(c, h.jobs.Status())
}
