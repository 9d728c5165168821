package wmssync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/logger"
)

// DefaultBatchLimit bounds the entities handled by one push run
const DefaultBatchLimit = 200

// Job names
const (
	JobPushPendingOrders      = "push_pending_orders"
	JobPullOrderStatus        = "pull_order_status"
	JobSyncProductsAndInbound = "sync_products_inbound"
	JobPullStockLevels        = "pull_stock_levels"
)

// RunSummary describes one run of a scheduled job
type RunSummary struct {
	Job       string    `json:"job"`
	RunID     string    `json:"run_id"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Degraded  int       `json:"degraded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Err       error     `json:"-"`
}

// ErrorMessage returns the run-level error message, empty when the run completed
func (s RunSummary) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

func (s *RunSummary) add(res wms.SyncResult) {
	s.Processed++
	switch res.Outcome {
	case wms.OutcomeSynced:
		s.Succeeded++
	case wms.OutcomeDegraded:
		s.Succeeded++
		s.Degraded++
	default:
		s.Failed++
	}
}

func (s *RunSummary) addReconcile(r ReconcileSummary) {
	s.Processed += r.Fetched
	s.Succeeded += r.Updated
	s.Skipped += r.Skipped
	s.Failed += r.Failed
	s.Err = r.Err
}

// Jobs are the entry points invoked by the scheduler and the admin API.
// No job returns an error for a single entity; failures are counted in the summary.
type Jobs struct {
	products     *ProductSyncDriver
	orders       *OrderSyncDriver
	inbound      *InboundSyncDriver
	orderRecon   *OrderReconciler
	stockRecon   *StockReconciler
	productRepo  wms.ProductRepository
	orderRepo    wms.SalesOrderRepository
	purchaseRepo wms.PurchaseOrderRepository
	gateway      wms.Gateway
	defaultLimit int
	logger       *zap.Logger
}

// JobsConfig wires the jobs
type JobsConfig struct {
	Products     *ProductSyncDriver
	Orders       *OrderSyncDriver
	Inbound      *InboundSyncDriver
	OrderRecon   *OrderReconciler
	StockRecon   *StockReconciler
	ProductRepo  wms.ProductRepository
	OrderRepo    wms.SalesOrderRepository
	PurchaseRepo wms.PurchaseOrderRepository
	Gateway      wms.Gateway
	BatchLimit   int
	Logger       *zap.Logger
}

// NewJobs creates the job entry points
func NewJobs(cfg JobsConfig) *Jobs {
	limit := cfg.BatchLimit
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Jobs{
		products:     cfg.Products,
		orders:       cfg.Orders,
		inbound:      cfg.Inbound,
		orderRecon:   cfg.OrderRecon,
		stockRecon:   cfg.StockRecon,
		productRepo:  cfg.ProductRepo,
		orderRepo:    cfg.OrderRepo,
		purchaseRepo: cfg.PurchaseRepo,
		gateway:      cfg.Gateway,
		defaultLimit: limit,
		logger:       log.Named("wms_jobs"),
	}
}

// startRun assigns a run id and returns the run-scoped context
func (j *Jobs) startRun(ctx context.Context, job string) (context.Context, *RunSummary, *zap.Logger) {
	summary := &RunSummary{
		Job:     job,
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	ctx, log := logger.WithRunID(ctx, logger.For(ctx, j.logger).With(zap.String("job", job)), summary.RunID)
	log.Info("WMS job started")
	return ctx, summary, log
}

func (j *Jobs) finishRun(log *zap.Logger, summary *RunSummary) RunSummary {
	summary.Finished = time.Now()
	fields := []zap.Field{
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("degraded", summary.Degraded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("elapsed", summary.Finished.Sub(summary.Started)),
	}
	if summary.Err != nil {
		log.Error("WMS job aborted", append(fields, zap.Error(summary.Err))...)
	} else {
		log.Info("WMS job finished", fields...)
	}
	return *summary
}

func (j *Jobs) limitOrDefault(limit int) int {
	if limit <= 0 {
		return j.defaultLimit
	}
	return limit
}

// PushPendingOrders pushes up to limit orders flagged for push
func (j *Jobs) PushPendingOrders(ctx context.Context, limit int) RunSummary {
	ctx, summary, log := j.startRun(ctx, JobPushPendingOrders)

	orders, err := j.orderRepo.FindPendingPush(ctx, j.limitOrDefault(limit))
	if err != nil {
		summary.Err = err
		return j.finishRun(log, summary)
	}
	for i := range orders {
		summary.add(j.orders.PushOrder(ctx, &orders[i]))
	}
	return j.finishRun(log, summary)
}

// PullOrderStatus applies remote order status changes
func (j *Jobs) PullOrderStatus(ctx context.Context) RunSummary {
	ctx, summary, log := j.startRun(ctx, JobPullOrderStatus)
	summary.addReconcile(j.orderRecon.PullUpdatedOrders(ctx))
	return j.finishRun(log, summary)
}

// SyncProductsAndInbound pushes new or changed products, then confirmed purchase orders
// when inbound sync is enabled
func (j *Jobs) SyncProductsAndInbound(ctx context.Context, limit int) RunSummary {
	ctx, summary, log := j.startRun(ctx, JobSyncProductsAndInbound)
	limit = j.limitOrDefault(limit)

	products, err := j.productRepo.FindForSync(ctx, limit)
	if err != nil {
		summary.Err = err
		return j.finishRun(log, summary)
	}
	for i := range products {
		summary.add(j.products.PushProduct(ctx, &products[i]))
	}

	if !j.inbound.Enabled() {
		log.Debug("Inbound sync disabled, skipping purchase orders")
		return j.finishRun(log, summary)
	}
	purchases, err := j.purchaseRepo.FindForInbound(ctx, limit)
	if err != nil {
		summary.Err = err
		return j.finishRun(log, summary)
	}
	for i := range purchases {
		summary.add(j.inbound.PushPurchaseOrder(ctx, &purchases[i]))
	}
	return j.finishRun(log, summary)
}

// PullStockLevels applies remote stock levels
func (j *Jobs) PullStockLevels(ctx context.Context) RunSummary {
	ctx, summary, log := j.startRun(ctx, JobPullStockLevels)
	summary.addReconcile(j.stockRecon.PullStockLevels(ctx))
	return j.finishRun(log, summary)
}

// CheckHealth verifies the WMS is reachable with the configured credentials
func (j *Jobs) CheckHealth(ctx context.Context) error {
	return j.gateway.Health(ctx)
}

// PushProduct pushes one product on demand
func (j *Jobs) PushProduct(ctx context.Context, id int64) wms.SyncResult {
	return j.products.Push(ctx, id)
}

// PushOrder pushes one sales order on demand
func (j *Jobs) PushOrder(ctx context.Context, id int64) wms.SyncResult {
	return j.orders.Push(ctx, id)
}

// PushInbound pushes one purchase order on demand
func (j *Jobs) PushInbound(ctx context.Context, id int64) wms.SyncResult {
	return j.inbound.Push(ctx, id)
}
