package wmssync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// InboundSyncDriver announces purchase orders as inbound forecasts
type InboundSyncDriver struct {
	pusher
	purchases wms.PurchaseOrderRepository
	products  *ProductSyncDriver
	enabled   bool
}

// NewInboundSyncDriver creates an inbound driver. With enabled false every push
// fails with wms.ErrInboundSyncDisabled.
func NewInboundSyncDriver(purchases wms.PurchaseOrderRepository, products *ProductSyncDriver, enabled bool, deps Deps) *InboundSyncDriver {
	return &InboundSyncDriver{
		pusher:    newPusher(deps, "inbound_sync"),
		purchases: purchases,
		products:  products,
		enabled:   enabled,
	}
}

// Enabled reports whether inbound sync is switched on
func (d *InboundSyncDriver) Enabled() bool {
	return d.enabled
}

// Push loads the purchase order and pushes it
func (d *InboundSyncDriver) Push(ctx context.Context, id int64) wms.SyncResult {
	ref := wms.EntityRef{Kind: wms.EntityPurchaseOrder, ID: id}
	if !d.enabled {
		return wms.NewFailedResult(ref, wms.ErrInboundSyncDisabled, nil)
	}
	po, err := d.purchases.FindByID(ctx, id)
	if err != nil {
		d.log(ctx, ref).Error("Failed to load purchase order", zap.Error(err))
		return wms.NewFailedResult(ref, err, nil)
	}
	return d.PushPurchaseOrder(ctx, po)
}

// PushPurchaseOrder ensures the supplier and line products exist remotely, then creates
// the inbound or updates it by remote id.
func (d *InboundSyncDriver) PushPurchaseOrder(ctx context.Context, po *wms.PurchaseOrder) wms.SyncResult {
	ref := po.Ref()
	if !d.enabled {
		return wms.NewFailedResult(ref, wms.ErrInboundSyncDisabled, nil)
	}

	release, err := d.acquire(ctx, ref)
	if err != nil {
		d.log(ctx, ref).Warn("Inbound push skipped", zap.Error(err))
		return wms.NewFailedResult(ref, err, nil)
	}
	defer release()

	deps := d.ensureSupplier(ctx, po)

	lineProducts := make([]*wms.Product, 0, len(po.Lines))
	for _, line := range po.Lines {
		lineProducts = append(lineProducts, line.Product)
	}
	deps.merge(d.products.PushDependencies(ctx, lineProducts))
	degraded := deps.Refs()

	save := func() error { return d.purchases.Save(ctx, po) }

	var remoteID, message string
	if po.Sync.IsSynced() {
		remoteID = po.Sync.RemoteID()
		_, err = d.gateway.UpdateInbound(ctx, remoteID, po)
		message = fmt.Sprintf("Updated inbound in WMS (ID %s).", remoteID)
	} else {
		var rec *wms.RemoteRecord
		rec, err = d.gateway.CreateInbound(ctx, po)
		if err == nil && rec.ID == "" {
			err = wms.ErrMissingRemoteID
		}
		if err == nil {
			po.MarkCreated(*rec)
			remoteID = rec.ID
			message = fmt.Sprintf("Created inbound in WMS (ID %s).", remoteID)
		}
	}
	if err != nil {
		d.failed(ctx, po, deps.annotate(fmt.Sprintf("Failed to push inbound to WMS: %v.", err)), err)
		_ = d.persist(ctx, ref, save)
		return wms.NewFailedResult(ref, err, degraded)
	}

	now := d.now()
	po.LastPushedAt = &now
	d.succeeded(ctx, po, deps.annotate(message))
	if err := d.persist(ctx, ref, save); err != nil {
		return wms.NewFailedResult(ref, err, degraded)
	}
	d.log(ctx, ref).Info("Inbound pushed to WMS",
		zap.String("purchase_order", po.Name),
		zap.String("remote_id", remoteID),
		zap.Int("degraded_dependencies", len(degraded)),
	)
	return wms.NewSyncedResult(ref, remoteID, degraded)
}

// ensureSupplier looks the supplier up by reference on every push and creates it when missing.
// A lookup error counts as not found. A failed create is returned as a dependency failure.
func (d *InboundSyncDriver) ensureSupplier(ctx context.Context, po *wms.PurchaseOrder) dependencyFailures {
	var failures dependencyFailures
	supplier := po.Supplier
	reference := supplier.SupplierReference()

	found, err := d.gateway.FindSupplierByReference(ctx, reference)
	if err != nil {
		d.log(ctx, po.Ref()).Warn("Supplier lookup failed, treating as not found",
			zap.String("supplier_reference", reference),
			zap.Error(err),
		)
		found = nil
	}
	if found != nil {
		return failures
	}

	if _, err := d.gateway.CreateSupplier(ctx, supplier); err != nil {
		d.log(ctx, po.Ref()).Error("Failed to create supplier in WMS",
			zap.String("supplier_reference", reference),
			zap.Error(err),
		)
		failures.add(supplier.EntityRef(), fmt.Sprintf("Failed to create supplier in WMS: %v.", err))
		return failures
	}
	d.note(ctx, po.Ref(), fmt.Sprintf("Created supplier in WMS: %s", supplier.Name))
	return failures
}
