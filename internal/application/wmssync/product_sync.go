package wmssync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// ProductSyncDriver pushes products with create-or-update semantics
type ProductSyncDriver struct {
	pusher
	products wms.ProductRepository
}

// NewProductSyncDriver creates a product driver
func NewProductSyncDriver(products wms.ProductRepository, deps Deps) *ProductSyncDriver {
	return &ProductSyncDriver{
		pusher:   newPusher(deps, "product_sync"),
		products: products,
	}
}

// Push loads the product and pushes it
func (d *ProductSyncDriver) Push(ctx context.Context, id int64) wms.SyncResult {
	ref := wms.EntityRef{Kind: wms.EntityProduct, ID: id}
	product, err := d.products.FindByID(ctx, id)
	if err != nil {
		d.log(ctx, ref).Error("Failed to load product", zap.Error(err))
		return wms.NewFailedResult(ref, err, nil)
	}
	return d.PushProduct(ctx, product)
}

// PushProduct creates the product when Unsynced and updates it by remote id otherwise.
// The product's sync-state is updated in place and persisted.
func (d *ProductSyncDriver) PushProduct(ctx context.Context, product *wms.Product) wms.SyncResult {
	ref := product.Ref()
	release, err := d.acquire(ctx, ref)
	if err != nil {
		d.log(ctx, ref).Warn("Product push skipped", zap.Error(err))
		return wms.NewFailedResult(ref, err, nil)
	}
	defer release()

	save := func() error { return d.products.Save(ctx, product) }

	if product.Sync.IsSynced() {
		remoteID := product.Sync.RemoteID()
		if _, err := d.gateway.UpdateProduct(ctx, remoteID, product); err != nil {
			d.failed(ctx, product, fmt.Sprintf("Failed to update product in WMS: %v", err), err)
			_ = d.persist(ctx, ref, save)
			return wms.NewFailedResult(ref, err, nil)
		}
		d.markPushed(product)
		d.succeeded(ctx, product, fmt.Sprintf("Updated product in WMS (ID %s).", remoteID))
		if err := d.persist(ctx, ref, save); err != nil {
			return wms.NewFailedResult(ref, err, nil)
		}
		d.log(ctx, ref).Info("Product updated in WMS", zap.String("remote_id", remoteID))
		return wms.NewSyncedResult(ref, remoteID, nil)
	}

	rec, err := d.gateway.CreateProduct(ctx, product)
	if err == nil && rec.ID == "" {
		err = wms.ErrMissingRemoteID
	}
	if err != nil {
		d.failed(ctx, product, fmt.Sprintf("Failed to create product in WMS: %v", err), err)
		_ = d.persist(ctx, ref, save)
		return wms.NewFailedResult(ref, err, nil)
	}

	sku := rec.SKU
	if sku == "" {
		sku = product.ResolveSKU()
	}
	product.MarkCreated(rec.ID, sku)
	d.markPushed(product)
	d.succeeded(ctx, product, fmt.Sprintf("Created product in WMS (ID %s).", rec.ID))
	if err := d.persist(ctx, ref, save); err != nil {
		return wms.NewFailedResult(ref, err, nil)
	}
	d.log(ctx, ref).Info("Product created in WMS",
		zap.String("remote_id", rec.ID),
		zap.String("sku", sku),
	)
	return wms.NewSyncedResult(ref, rec.ID, nil)
}

func (d *ProductSyncDriver) markPushed(product *wms.Product) {
	now := d.now()
	product.LastPushedAt = &now
}

// PushDependencies pushes every Unsynced product in order, once per product id.
// Failures are returned for the parent's note and never abort the parent. Each failed
// product still gets its own throttled note.
func (d *ProductSyncDriver) PushDependencies(ctx context.Context, products []*wms.Product) dependencyFailures {
	var failures dependencyFailures
	seen := make(map[int64]*wms.Product, len(products))
	for _, product := range products {
		if product == nil || product.Sync.IsSynced() {
			continue
		}
		if first, dup := seen[product.ID]; dup {
			product.Sync = first.Sync
			product.RemoteSKU = first.RemoteSKU
			continue
		}
		seen[product.ID] = product

		res := d.PushProduct(ctx, product)
		if res.Succeeded() {
			continue
		}
		failures.add(product.Ref(), fmt.Sprintf("Failed to push product %s to WMS: %v.", product.Name, res.Err))
	}
	return failures
}
