package wms

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseState is the ERP-side purchase order state
type PurchaseState string

const (
	PurchaseStateDraft    PurchaseState = "draft"
	PurchaseStatePurchase PurchaseState = "purchase"
	PurchaseStateDone     PurchaseState = "done"
	PurchaseStateCancel   PurchaseState = "cancel"
)

// InboundLine is a read-only projection of a purchase order line
type InboundLine struct {
	ID       int64
	Product  *Product
	Quantity decimal.Decimal
	Name     string
}

// PurchaseOrder is announced to the WMS as an inbound forecast
type PurchaseOrder struct {
	ID       int64
	Name     string
	State    PurchaseState
	Supplier Partner
	Lines    []InboundLine

	Sync         SyncState
	RemoteStatus string
	PushFailure  FailureMark
	UpdatedAt    time.Time
	LastPushedAt *time.Time
}

// IsConfirmed reports whether the purchase order may be announced as an inbound
func (po *PurchaseOrder) IsConfirmed() bool {
	return po.State == PurchaseStatePurchase || po.State == PurchaseStateDone
}

// MarkCreated records the result of a successful inbound create
func (po *PurchaseOrder) MarkCreated(rec RemoteRecord) {
	po.Sync = SyncedAs(rec.ID)
	po.RemoteStatus = rec.Status
	if po.RemoteStatus == "" {
		po.RemoteStatus = DefaultCreatedStatus
	}
}

// Ref returns the entity reference
func (po *PurchaseOrder) Ref() EntityRef {
	return EntityRef{Kind: EntityPurchaseOrder, ID: po.ID}
}

// FailureMark returns the throttle state
func (po *PurchaseOrder) FailureMark() *FailureMark {
	return &po.PushFailure
}
