package models

import (
	"time"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for a sales order and its WMS sync-state
type SalesOrderModel struct {
	ID                int64                 `gorm:"primaryKey"`
	Name              string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	State             string                `gorm:"type:varchar(20);not null;default:'draft'"`
	PartnerID         int64                 `gorm:"not null;index"`
	Partner           PartnerModel          `gorm:"foreignKey:PartnerID"`
	ShippingPartnerID *int64                `gorm:"index"`
	ShippingPartner   *PartnerModel         `gorm:"foreignKey:ShippingPartnerID"`
	Lines             []SalesOrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
	Pickings          []PickingModel        `gorm:"foreignKey:OrderID;references:ID"`

	SyncColumns
	RemoteStatus      string     `gorm:"column:wms_remote_status;type:varchar(50);not null;default:''"`
	RemoteReference   string     `gorm:"column:wms_remote_reference;type:varchar(64);not null;default:''"`
	TrackingURL       string     `gorm:"column:wms_tracking_url;type:varchar(500);not null;default:''"`
	RemoteWebshopID   string     `gorm:"column:wms_webshop_id;type:varchar(64);not null;default:''"`
	LastRemotePayload string     `gorm:"column:wms_last_payload;type:text;not null;default:''"`
	DeliveredAt       *time.Time `gorm:"column:wms_delivered_at"`
	PendingPush       bool       `gorm:"column:wms_pending_push;not null;default:false;index"`
	UpdatedAt         time.Time  `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder
func (m *SalesOrderModel) ToDomain() *wms.SalesOrder {
	order := &wms.SalesOrder{
		ID:                m.ID,
		Name:              m.Name,
		State:             wms.OrderState(m.State),
		Partner:           m.Partner.ToDomain(),
		Lines:             make([]wms.OrderLine, len(m.Lines)),
		Pickings:          make([]wms.Picking, len(m.Pickings)),
		Sync:              m.SyncState(),
		RemoteStatus:      m.RemoteStatus,
		RemoteReference:   m.RemoteReference,
		TrackingURL:       m.TrackingURL,
		RemoteWebshopID:   m.RemoteWebshopID,
		LastRemotePayload: m.LastRemotePayload,
		DeliveredAt:       m.DeliveredAt,
		PendingPush:       m.PendingPush,
		PushFailure:       m.FailureMark(),
	}
	if m.ShippingPartner != nil {
		shipping := m.ShippingPartner.ToDomain()
		order.ShippingPartner = &shipping
	}
	for i := range m.Lines {
		order.Lines[i] = m.Lines[i].ToDomain()
	}
	for i := range m.Pickings {
		order.Pickings[i] = m.Pickings[i].ToDomain()
	}
	return order
}

// SyncUpdatesFromSalesOrder returns the columns written when a push saves an order
func SyncUpdatesFromSalesOrder(o *wms.SalesOrder) map[string]any {
	var cols SyncColumns
	cols.FromDomain(o.Sync, o.PushFailure, nil)
	updates := cols.Updates()
	delete(updates, "wms_last_pushed_at")
	updates["wms_remote_status"] = o.RemoteStatus
	updates["wms_remote_reference"] = o.RemoteReference
	updates["wms_pending_push"] = o.PendingPush
	return updates
}

// RemoteStatusUpdatesFromSalesOrder returns the columns written by the order status pull.
// The failure mark and the pending flag belong to pushes and are left alone.
func RemoteStatusUpdatesFromSalesOrder(o *wms.SalesOrder) map[string]any {
	updates := map[string]any{
		"wms_remote_status":    o.RemoteStatus,
		"wms_remote_reference": o.RemoteReference,
		"wms_tracking_url":     o.TrackingURL,
		"wms_webshop_id":       o.RemoteWebshopID,
		"wms_last_payload":     o.LastRemotePayload,
		"wms_delivered_at":     o.DeliveredAt,
	}
	if id := o.Sync.RemoteID(); id != "" {
		updates["wms_remote_id"] = id
	}
	return updates
}

// SalesOrderLineModel is the persistence model for a sales order line
type SalesOrderLineModel struct {
	ID        int64           `gorm:"primaryKey"`
	OrderID   int64           `gorm:"not null;index"`
	ProductID *int64          `gorm:"index"`
	Product   *ProductModel   `gorm:"foreignKey:ProductID"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Name      string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain OrderLine
func (m *SalesOrderLineModel) ToDomain() wms.OrderLine {
	line := wms.OrderLine{
		ID:       m.ID,
		Quantity: m.Quantity,
		Name:     m.Name,
	}
	if m.Product != nil {
		line.Product = m.Product.ToDomain()
	}
	return line
}

// PickingModel is the persistence model for an outgoing delivery
type PickingModel struct {
	ID      int64              `gorm:"primaryKey"`
	OrderID int64              `gorm:"not null;index"`
	Name    string             `gorm:"type:varchar(64);not null"`
	State   string             `gorm:"type:varchar(20);not null;default:'draft'"`
	Lines   []PickingLineModel `gorm:"foreignKey:PickingID;references:ID"`
}

// TableName returns the table name for GORM
func (PickingModel) TableName() string {
	return "pickings"
}

// ToDomain converts the persistence model to a domain Picking
func (m *PickingModel) ToDomain() wms.Picking {
	picking := wms.Picking{
		ID:    m.ID,
		Name:  m.Name,
		State: wms.PickingState(m.State),
		Lines: make([]wms.PickingLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		picking.Lines[i] = wms.PickingLine{
			ID:         l.ID,
			ProductID:  l.ProductID,
			OrderedQty: l.OrderedQty,
			DoneQty:    l.DoneQty,
		}
	}
	return picking
}

// PickingLineModel is the persistence model for a picking move line
type PickingLineModel struct {
	ID         int64           `gorm:"primaryKey"`
	PickingID  int64           `gorm:"not null;index"`
	ProductID  int64           `gorm:"not null"`
	OrderedQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DoneQty    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PickingLineModel) TableName() string {
	return "picking_lines"
}

// PurchaseOrderModel is the persistence model for a purchase order and its inbound sync-state
type PurchaseOrderModel struct {
	ID         int64                    `gorm:"primaryKey"`
	Name       string                   `gorm:"type:varchar(64);not null;uniqueIndex"`
	State      string                   `gorm:"type:varchar(20);not null;default:'draft';index"`
	SupplierID int64                    `gorm:"not null;index"`
	Supplier   PartnerModel             `gorm:"foreignKey:SupplierID"`
	Lines      []PurchaseOrderLineModel `gorm:"foreignKey:PurchaseOrderID;references:ID"`

	SyncColumns
	RemoteStatus string    `gorm:"column:wms_remote_status;type:varchar(50);not null;default:''"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() *wms.PurchaseOrder {
	po := &wms.PurchaseOrder{
		ID:           m.ID,
		Name:         m.Name,
		State:        wms.PurchaseState(m.State),
		Supplier:     m.Supplier.ToDomain(),
		Lines:        make([]wms.InboundLine, len(m.Lines)),
		Sync:         m.SyncState(),
		RemoteStatus: m.RemoteStatus,
		PushFailure:  m.FailureMark(),
		UpdatedAt:    m.UpdatedAt,
		LastPushedAt: m.LastPushedAt,
	}
	for i, l := range m.Lines {
		po.Lines[i] = wms.InboundLine{
			ID:       l.ID,
			Quantity: l.Quantity,
			Name:     l.Name,
		}
		if l.Product != nil {
			po.Lines[i].Product = l.Product.ToDomain()
		}
	}
	return po
}

// SyncUpdatesFromPurchaseOrder returns the columns written when the connector saves a purchase order
func SyncUpdatesFromPurchaseOrder(po *wms.PurchaseOrder) map[string]any {
	var cols SyncColumns
	cols.FromDomain(po.Sync, po.PushFailure, po.LastPushedAt)
	updates := cols.Updates()
	updates["wms_remote_status"] = po.RemoteStatus
	return updates
}

// PurchaseOrderLineModel is the persistence model for a purchase order line
type PurchaseOrderLineModel struct {
	ID              int64           `gorm:"primaryKey"`
	PurchaseOrderID int64           `gorm:"not null;index"`
	ProductID       *int64          `gorm:"index"`
	Product         *ProductModel   `gorm:"foreignKey:ProductID"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Name            string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}
