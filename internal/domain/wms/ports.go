package wms

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway is the port to the remote WMS API.
// Implementations map domain entities onto wire payloads and resolve responses into typed results.
type Gateway interface {
	// Health checks that the WMS is reachable with the configured credentials
	Health(ctx context.Context) error

	CreateProduct(ctx context.Context, p *Product) (*RemoteRecord, error)
	UpdateProduct(ctx context.Context, remoteID string, p *Product) (*RemoteRecord, error)

	// CreateOrder creates a remote order; orders have no update path
	CreateOrder(ctx context.Context, o *SalesOrder) (*RemoteRecord, error)

	// FindSupplierByReference returns nil, nil when no supplier matches
	FindSupplierByReference(ctx context.Context, reference string) (*RemoteSupplier, error)
	CreateSupplier(ctx context.Context, supplier Partner) (*RemoteRecord, error)

	CreateInbound(ctx context.Context, po *PurchaseOrder) (*RemoteRecord, error)
	UpdateInbound(ctx context.Context, remoteID string, po *PurchaseOrder) (*RemoteRecord, error)

	// OrdersUpdatedSince lists remote orders modified after since
	OrdersUpdatedSince(ctx context.Context, since time.Time) ([]RemoteOrder, error)
	// StockLevels lists all remote stock records
	StockLevels(ctx context.Context) ([]StockRecord, error)
}

// ProductRepository persists products and their sync-state.
// Pushes and the stock pull own disjoint columns so they can run concurrently.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	// FindBySKU matches the remote SKU override or the stocking code
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	// FindForSync returns products never created remotely or changed since their last push
	FindForSync(ctx context.Context, limit int) ([]Product, error)
	// Save writes the push-owned columns: remote identity, failure mark and push time
	Save(ctx context.Context, p *Product) error
	// SaveStock writes only the pulled stock level and minimum stock
	SaveStock(ctx context.Context, id int64, stockLevel, minStock decimal.Decimal) error
}

// SalesOrderRepository persists sales orders and their sync-state
type SalesOrderRepository interface {
	FindByID(ctx context.Context, id int64) (*SalesOrder, error)
	FindByName(ctx context.Context, name string) (*SalesOrder, error)
	FindPendingPush(ctx context.Context, limit int) ([]SalesOrder, error)
	// Save writes the push-owned columns: remote identity, create status, failure mark and pending flag
	Save(ctx context.Context, o *SalesOrder) error
	// SaveRemoteStatus writes only the columns applied by the status pull
	SaveRemoteStatus(ctx context.Context, o *SalesOrder) error
}

// PurchaseOrderRepository persists purchase orders and their inbound sync-state
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id int64) (*PurchaseOrder, error)
	// FindForInbound returns confirmed purchase orders eligible for inbound announcement
	FindForInbound(ctx context.Context, limit int) ([]PurchaseOrder, error)
	Save(ctx context.Context, po *PurchaseOrder) error
}

// Notifier posts one note to an entity's activity trail
type Notifier interface {
	Notify(ctx context.Context, entity EntityRef, message string) error
}

// Fulfillment performs local delivery side effects
type Fulfillment interface {
	// ValidatePicking persists the picking's done quantities and finalizes it
	ValidatePicking(ctx context.Context, order *SalesOrder, picking *Picking) error
	// ConfirmOrder moves the order to the confirmed state
	ConfirmOrder(ctx context.Context, order *SalesOrder) error
}

// PushGuard keeps two workers from pushing the same entity at once
type PushGuard interface {
	// Acquire returns false when another holder owns the key
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
