package wms

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// OrderState is the ERP-side sales order state
type OrderState string

const (
	OrderStateDraft  OrderState = "draft"
	OrderStateSent   OrderState = "sent"
	OrderStateSale   OrderState = "sale"
	OrderStateDone   OrderState = "done"
	OrderStateCancel OrderState = "cancel"
)

// IsValid checks if the order state is known
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateDraft, OrderStateSent, OrderStateSale, OrderStateDone, OrderStateCancel:
		return true
	default:
		return false
	}
}

// DefaultCreatedStatus is stored when a create response carries no status
const DefaultCreatedStatus = "created"

// terminalStatuses are remote order statuses that mean fulfillment is complete
var terminalStatuses = map[string]struct{}{
	"delivered": {},
	"shipped":   {},
	"completed": {},
}

// IsTerminalStatus reports whether a remote order status is delivered-equivalent.
// Matching is case-insensitive.
func IsTerminalStatus(status string) bool {
	_, ok := terminalStatuses[cases.Fold().String(strings.TrimSpace(status))]
	return ok
}

// OrderLine is a read-only projection of a sales order line
type OrderLine struct {
	ID       int64
	Product  *Product
	Quantity decimal.Decimal
	Name     string
}

// SalesOrder is an ERP sales order pushed to the WMS for fulfillment
type SalesOrder struct {
	ID              int64
	Name            string
	State           OrderState
	Partner         Partner
	ShippingPartner *Partner
	Lines           []OrderLine
	Pickings        []Picking

	Sync              SyncState
	RemoteStatus      string
	RemoteReference   string
	TrackingURL       string
	RemoteWebshopID   string
	LastRemotePayload string
	DeliveredAt       *time.Time
	PendingPush       bool
	PushFailure       FailureMark
}

// ShippingParty returns the delivery partner, falling back to the ordering partner
func (o *SalesOrder) ShippingParty() Partner {
	if o.ShippingPartner != nil {
		return *o.ShippingPartner
	}
	return o.Partner
}

// IsConfirmed reports whether the order no longer needs confirmation
func (o *SalesOrder) IsConfirmed() bool {
	return o.State == OrderStateSale || o.State == OrderStateDone
}

// MarkCreated records the result of a successful create
func (o *SalesOrder) MarkCreated(rec RemoteRecord) {
	o.Sync = SyncedAs(rec.ID)
	o.RemoteStatus = rec.Status
	if o.RemoteStatus == "" {
		o.RemoteStatus = DefaultCreatedStatus
	}
	o.RemoteReference = rec.Reference
	if o.RemoteReference == "" {
		o.RemoteReference = o.Name
	}
	o.PendingPush = false
}

// ApplyRemote overwrites the sync-state with a pulled remote order.
// Remote values win; attributes missing from the remote record keep their previous value.
func (o *SalesOrder) ApplyRemote(r RemoteOrder) {
	if r.ID != "" {
		o.Sync = SyncedAs(r.ID)
	}
	if r.Status != "" {
		o.RemoteStatus = r.Status
	}
	if r.Reference != "" {
		o.RemoteReference = r.Reference
	}
	if r.TrackingURL != "" {
		o.TrackingURL = r.TrackingURL
	}
	if r.WebshopID != "" {
		o.RemoteWebshopID = r.WebshopID
	}
	if r.Raw != "" {
		o.LastRemotePayload = r.Raw
	}
}

// OpenPickings returns the pickings that are neither done nor cancelled
func (o *SalesOrder) OpenPickings() []*Picking {
	open := make([]*Picking, 0, len(o.Pickings))
	for i := range o.Pickings {
		if !o.Pickings[i].IsFinal() {
			open = append(open, &o.Pickings[i])
		}
	}
	return open
}

// Ref returns the entity reference
func (o *SalesOrder) Ref() EntityRef {
	return EntityRef{Kind: EntitySalesOrder, ID: o.ID}
}

// FailureMark returns the throttle state
func (o *SalesOrder) FailureMark() *FailureMark {
	return &o.PushFailure
}
