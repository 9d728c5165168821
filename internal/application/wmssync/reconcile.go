package wmssync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/logger"
)

// DefaultOrderWindow is the trailing window of the order status pull.
// It must exceed the poll interval.
const DefaultOrderWindow = 3 * time.Hour

// DeliveredNote is posted when a terminal remote status was applied
const DeliveredNote = "WMS marked delivered; delivery validated."

// ReconcileSummary counts the records of one pull
type ReconcileSummary struct {
	Fetched int
	Matched int
	Updated int
	Skipped int
	Failed  int
	// Err is set when the remote fetch itself failed
	Err error
}

// ---------------------------------------------------------------------------
// Order status pull
// ---------------------------------------------------------------------------

// OrderReconciler applies remote order status changes to local orders
type OrderReconciler struct {
	gateway     wms.Gateway
	orders      wms.SalesOrderRepository
	fulfillment wms.Fulfillment
	notifier    wms.Notifier
	window      time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewOrderReconciler creates an order reconciler. A non-positive window selects DefaultOrderWindow.
func NewOrderReconciler(
	gateway wms.Gateway,
	orders wms.SalesOrderRepository,
	fulfillment wms.Fulfillment,
	notifier wms.Notifier,
	window time.Duration,
	log *zap.Logger,
) *OrderReconciler {
	if window <= 0 {
		window = DefaultOrderWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderReconciler{
		gateway:     gateway,
		orders:      orders,
		fulfillment: fulfillment,
		notifier:    notifier,
		window:      window,
		now:         time.Now,
		logger:      log.Named("order_reconciler"),
	}
}

// PullUpdatedOrders fetches the orders modified within the window and applies them to the
// local orders with the same name. Unmatched references are skipped.
func (r *OrderReconciler) PullUpdatedOrders(ctx context.Context) ReconcileSummary {
	var summary ReconcileSummary
	log := logger.For(ctx, r.logger)

	since := r.now().Add(-r.window)
	remote, err := r.gateway.OrdersUpdatedSince(ctx, since)
	if err != nil {
		log.Error("Failed to fetch updated WMS orders", zap.Time("since", since), zap.Error(err))
		summary.Err = err
		return summary
	}
	summary.Fetched = len(remote)

	for _, item := range remote {
		reference := strings.TrimSpace(item.Reference)
		if reference == "" {
			summary.Skipped++
			continue
		}
		order, err := r.orders.FindByName(ctx, reference)
		if errors.Is(err, wms.ErrNotFound) {
			summary.Skipped++
			continue
		}
		if err != nil {
			log.Error("Failed to load order for WMS update", zap.String("order", reference), zap.Error(err))
			summary.Failed++
			continue
		}
		summary.Matched++

		if err := r.apply(ctx, order, item); err != nil {
			summary.Failed++
			continue
		}
		summary.Updated++
	}

	log.Info("WMS order status pull finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("matched", summary.Matched),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed),
	)
	return summary
}

// apply overwrites the order's sync-state and runs the delivery side effects for a
// terminal status
func (r *OrderReconciler) apply(ctx context.Context, order *wms.SalesOrder, item wms.RemoteOrder) error {
	log := logger.For(ctx, r.logger).With(
		zap.String("order", order.Name),
		zap.Int64("entity_id", order.ID),
	)
	wasTerminal := wms.IsTerminalStatus(order.RemoteStatus)
	order.ApplyRemote(item)

	delivered := false
	if wms.IsTerminalStatus(item.Status) {
		validated := r.validatePickings(ctx, log, order)
		if item.DeliveredAt != nil {
			order.DeliveredAt = item.DeliveredAt
		}
		if !order.IsConfirmed() {
			if err := r.fulfillment.ConfirmOrder(ctx, order); err != nil {
				log.Error("Failed to confirm delivered order", zap.Error(err))
			}
		}
		delivered = !wasTerminal || validated > 0
	}

	if err := r.orders.SaveRemoteStatus(ctx, order); err != nil {
		log.Error("Failed to persist WMS order status", zap.Error(err))
		return fmt.Errorf("save order %s: %w", order.Name, err)
	}
	if delivered {
		if err := r.notifier.Notify(ctx, order.Ref(), DeliveredNote); err != nil {
			log.Warn("Failed to post activity note", zap.Error(err))
		}
	}
	log.Debug("Applied WMS order status", zap.String("status", order.RemoteStatus))
	return nil
}

// validatePickings fills and finalizes every open picking. A failure is logged and the
// remaining pickings are still processed. Returns the number finalized.
func (r *OrderReconciler) validatePickings(ctx context.Context, log *zap.Logger, order *wms.SalesOrder) int {
	validated := 0
	for _, picking := range order.OpenPickings() {
		picking.FillDoneQuantities()
		if err := r.fulfillment.ValidatePicking(ctx, order, picking); err != nil {
			log.Warn("Could not validate picking",
				zap.String("picking", picking.Name),
				zap.Error(err),
			)
			continue
		}
		validated++
	}
	return validated
}

// ---------------------------------------------------------------------------
// Stock level pull
// ---------------------------------------------------------------------------

// StockReconciler applies remote stock levels to local products
type StockReconciler struct {
	gateway  wms.Gateway
	products wms.ProductRepository
	notifier wms.Notifier
	logger   *zap.Logger
}

// NewStockReconciler creates a stock reconciler
func NewStockReconciler(gateway wms.Gateway, products wms.ProductRepository, notifier wms.Notifier, log *zap.Logger) *StockReconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StockReconciler{
		gateway:  gateway,
		products: products,
		notifier: notifier,
		logger:   log.Named("stock_reconciler"),
	}
}

// PullStockLevels fetches all remote stock records and updates the fields present in each.
// Records without a SKU or without a matching product are skipped.
func (r *StockReconciler) PullStockLevels(ctx context.Context) ReconcileSummary {
	var summary ReconcileSummary
	log := logger.For(ctx, r.logger)

	records, err := r.gateway.StockLevels(ctx)
	if err != nil {
		log.Error("Failed to fetch WMS stock levels", zap.Error(err))
		summary.Err = err
		return summary
	}
	summary.Fetched = len(records)

	for _, rec := range records {
		sku := strings.TrimSpace(rec.SKU)
		if sku == "" {
			summary.Skipped++
			continue
		}
		product, err := r.products.FindBySKU(ctx, sku)
		if errors.Is(err, wms.ErrNotFound) {
			summary.Skipped++
			continue
		}
		if err != nil {
			log.Error("Failed to load product for stock update", zap.String("sku", sku), zap.Error(err))
			summary.Failed++
			continue
		}
		summary.Matched++

		prevStock, prevMin := product.StockLevel, product.MinStock
		product.ApplyStock(rec)
		if product.StockLevel.Equal(prevStock) && product.MinStock.Equal(prevMin) {
			continue
		}

		if err := r.products.SaveStock(ctx, product.ID, product.StockLevel, product.MinStock); err != nil {
			log.Error("Failed to persist stock level", zap.String("sku", sku), zap.Error(err))
			summary.Failed++
			continue
		}
		summary.Updated++

		message := fmt.Sprintf("WMS stock sync: stock=%s, min=%s", product.StockLevel.String(), product.MinStock.String())
		if err := r.notifier.Notify(ctx, product.Ref(), message); err != nil {
			log.Warn("Failed to post activity note", zap.String("sku", sku), zap.Error(err))
		}
	}

	log.Info("WMS stock pull finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("matched", summary.Matched),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
	)
	return summary
}
