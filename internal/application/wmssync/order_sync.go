package wmssync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// OrderSyncDriver pushes sales orders. Orders are create-only.
type OrderSyncDriver struct {
	pusher
	orders   wms.SalesOrderRepository
	products *ProductSyncDriver
}

// NewOrderSyncDriver creates an order driver; products pushes missing line products
func NewOrderSyncDriver(orders wms.SalesOrderRepository, products *ProductSyncDriver, deps Deps) *OrderSyncDriver {
	return &OrderSyncDriver{
		pusher:   newPusher(deps, "order_sync"),
		orders:   orders,
		products: products,
	}
}

// Push loads the order and pushes it
func (d *OrderSyncDriver) Push(ctx context.Context, id int64) wms.SyncResult {
	ref := wms.EntityRef{Kind: wms.EntitySalesOrder, ID: id}
	order, err := d.orders.FindByID(ctx, id)
	if err != nil {
		d.log(ctx, ref).Error("Failed to load sales order", zap.Error(err))
		return wms.NewFailedResult(ref, err, nil)
	}
	return d.PushOrder(ctx, order)
}

// PushOrder pushes the Unsynced line products, then creates the order.
// An order that already has a remote id is reported SYNCED without a remote call.
func (d *OrderSyncDriver) PushOrder(ctx context.Context, order *wms.SalesOrder) wms.SyncResult {
	ref := order.Ref()
	release, err := d.acquire(ctx, ref)
	if err != nil {
		d.log(ctx, ref).Warn("Order push skipped", zap.Error(err))
		return wms.NewFailedResult(ref, err, nil)
	}
	defer release()

	save := func() error { return d.orders.Save(ctx, order) }

	if order.Sync.IsSynced() {
		if order.PendingPush {
			order.PendingPush = false
			if err := d.persist(ctx, ref, save); err != nil {
				return wms.NewFailedResult(ref, err, nil)
			}
		}
		return wms.NewSyncedResult(ref, order.Sync.RemoteID(), nil)
	}

	lineProducts := make([]*wms.Product, 0, len(order.Lines))
	for _, line := range order.Lines {
		lineProducts = append(lineProducts, line.Product)
	}
	deps := d.products.PushDependencies(ctx, lineProducts)
	degraded := deps.Refs()

	rec, err := d.gateway.CreateOrder(ctx, order)
	if err == nil && rec.ID == "" {
		err = wms.ErrMissingRemoteID
	}
	if err != nil {
		d.failed(ctx, order, deps.annotate(fmt.Sprintf("Failed to push order to WMS: %v.", err)), err)
		_ = d.persist(ctx, ref, save)
		return wms.NewFailedResult(ref, err, degraded)
	}

	order.MarkCreated(*rec)
	d.succeeded(ctx, order, deps.annotate(fmt.Sprintf("Pushed order to WMS (ID %s).", rec.ID)))
	if err := d.persist(ctx, ref, save); err != nil {
		return wms.NewFailedResult(ref, err, degraded)
	}

	d.log(ctx, ref).Info("Order pushed to WMS",
		zap.String("order", order.Name),
		zap.String("remote_id", rec.ID),
		zap.Int("degraded_dependencies", len(degraded)),
	)
	return wms.NewSyncedResult(ref, rec.ID, degraded)
}
