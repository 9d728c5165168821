package wms

import (
	"time"

	"github.com/shopspring/decimal"
)

// RemoteRecord is the identity and status returned for a created, updated or looked-up record
type RemoteRecord struct {
	ID        string
	Status    string
	Reference string
	SKU       string
}

// RemoteOrder is an order as reported by the WMS
type RemoteOrder struct {
	ID          string
	Reference   string
	Status      string
	TrackingURL string
	WebshopID   string
	DeliveredAt *time.Time
	// Raw is the JSON of the remote record as received
	Raw string
}

// RemoteSupplier is a supplier found in the WMS
type RemoteSupplier struct {
	ID        string
	Reference string
	Name      string
}

// StockRecord is a stock level reported by the WMS.
// Nil fields were absent from the remote record.
type StockRecord struct {
	SKU           string
	MinStockLevel *decimal.Decimal
	StockLevel    *decimal.Decimal
}
