// Package handler implements the admin API endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/telemetry"
	"github.com/erp/wmsconnector/internal/interfaces/http/dto"
	"github.com/erp/wmsconnector/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common response helpers
type BaseHandler struct{}

// Success sends a 200 success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the status derived from code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	h.ErrorWithStatus(c, dto.GetHTTPStatus(code), code, message)
}

// ErrorWithStatus sends an error response with an explicit status
func (h *BaseHandler) ErrorWithStatus(c *gin.Context, status int, code, message string) {
	resp := dto.NewErrorResponse(code, message).
		WithCorrelation(middleware.GetRequestID(c), telemetry.GetTraceID(c.Request.Context()))
	c.JSON(status, resp)
}

// BindError answers a failed ShouldBind* call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); details != nil {
		resp := dto.NewValidationErrorResponse("Request validation failed", details).
			WithCorrelation(middleware.GetRequestID(c), telemetry.GetTraceID(c.Request.Context()))
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	h.Error(c, dto.ErrCodeBadRequest, err.Error())
}

// HandleSyncError maps connector errors to an error response
func (h *BaseHandler) HandleSyncError(c *gin.Context, err error) {
	code := ErrorCode(err)
	h.Error(c, code, err.Error())
}

// ErrorCode classifies a connector error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, wms.ErrNotFound):
		return dto.ErrCodeNotFound
	case errors.Is(err, wms.ErrEntityBusy):
		return dto.ErrCodeConflict
	case errors.Is(err, wms.ErrInboundSyncDisabled):
		return dto.ErrCodeInvalidState
	case errors.Is(err, wms.ErrConfiguration):
		return dto.ErrCodeNotConfigured
	case errors.Is(err, wms.ErrAuthentication),
		errors.Is(err, wms.ErrTransport),
		errors.Is(err, wms.ErrRemoteStatus),
		errors.Is(err, wms.ErrInvalidResponse),
		errors.Is(err, wms.ErrMissingRemoteID):
		return dto.ErrCodeRemote
	default:
		return dto.ErrCodeInternal
	}
}
