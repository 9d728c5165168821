package handler

import (
	"context"

	"github.com/erp/wmsconnector/internal/application/wmssync"
	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/logger"
	"github.com/erp/wmsconnector/internal/interfaces/http/dto"
	"github.com/erp/wmsconnector/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SyncJobs are the sync entry points exposed to operators
type SyncJobs interface {
	PushPendingOrders(ctx context.Context, limit int) wmssync.RunSummary
	PullOrderStatus(ctx context.Context) wmssync.RunSummary
	SyncProductsAndInbound(ctx context.Context, limit int) wmssync.RunSummary
	PullStockLevels(ctx context.Context) wmssync.RunSummary
	PushProduct(ctx context.Context, id int64) wms.SyncResult
	PushOrder(ctx context.Context, id int64) wms.SyncResult
	PushInbound(ctx context.Context, id int64) wms.SyncResult
}

// SyncHandler triggers jobs and single-record pushes on demand
type SyncHandler struct {
	BaseHandler
	jobs SyncJobs
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(jobs SyncJobs) *SyncHandler {
	return &SyncHandler{jobs: jobs}
}

// RegisterRoutes mounts the trigger endpoints
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs/:name/run", h.RunJob)
	rg.POST("/sync/:kind/:id/push", h.Push)
}

// RunJob runs one scheduled job synchronously and returns its summary
func (h *SyncHandler) RunJob(c *gin.Context) {
	var query dto.RunJobQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	name := c.Param("name")
	run, ok := h.jobRunner(name, query.Limit)
	if !ok {
		h.Error(c, dto.ErrCodeNotFound, "unknown job "+name)
		return
	}

	ctx := h.requestContext(c, query.Silent)
	logger.GetGinLogger(c).Info("Manual job run",
		zap.String("job", name),
		zap.String("operator", middleware.GetOperator(c)),
	)

	summary := run(ctx)
	if summary.Err != nil {
		h.HandleSyncError(c, summary.Err)
		return
	}
	h.Success(c, dto.NewRunSummaryResponse(summary))
}

func (h *SyncHandler) jobRunner(name string, limit int) (func(context.Context) wmssync.RunSummary, bool) {
	switch name {
	case wmssync.JobPushPendingOrders:
		return func(ctx context.Context) wmssync.RunSummary { return h.jobs.PushPendingOrders(ctx, limit) }, true
	case wmssync.JobPullOrderStatus:
		return h.jobs.PullOrderStatus, true
	case wmssync.JobSyncProductsAndInbound:
		return func(ctx context.Context) wmssync.RunSummary { return h.jobs.SyncProductsAndInbound(ctx, limit) }, true
	case wmssync.JobPullStockLevels:
		return h.jobs.PullStockLevels, true
	default:
		return nil, false
	}
}

// Push pushes one product, sales order or purchase order now.
// A FAILED outcome is answered with the error status of its cause.
func (h *SyncHandler) Push(c *gin.Context) {
	var uri dto.EntityURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var query dto.PushQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	ctx := h.requestContext(c, query.Silent)
	logger.GetGinLogger(c).Info("Manual push",
		zap.String("entity", uri.Kind),
		zap.Int64("entity_id", uri.ID),
		zap.String("operator", middleware.GetOperator(c)),
	)

	var res wms.SyncResult
	switch uri.Ref().Kind {
	case wms.EntityProduct:
		res = h.jobs.PushProduct(ctx, uri.ID)
	case wms.EntitySalesOrder:
		res = h.jobs.PushOrder(ctx, uri.ID)
	case wms.EntityPurchaseOrder:
		res = h.jobs.PushInbound(ctx, uri.ID)
	}

	if !res.Succeeded() {
		err := res.Err
		if err == nil {
			err = wms.ErrNotFound
		}
		h.HandleSyncError(c, err)
		return
	}
	h.Success(c, dto.NewSyncResultResponse(res))
}

func (h *SyncHandler) requestContext(c *gin.Context, silent bool) context.Context {
	ctx := c.Request.Context()
	if silent {
		ctx = logger.Silence(ctx)
	}
	return ctx
}
