package wms

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultUnitOfMeasure is sent when a product has no unit of measure
const DefaultUnitOfMeasure = "Units"

// Product is a stockable ERP product mirrored in the WMS
type Product struct {
	ID            int64
	Name          string
	DefaultCode   string
	Barcode       string
	MinStock      decimal.Decimal
	UnitOfMeasure string
	IsPack        bool

	// RemoteSKU overrides every other SKU source once set
	RemoteSKU   string
	Sync        SyncState
	StockLevel  decimal.Decimal
	PushFailure FailureMark
	UpdatedAt   time.Time
	// LastPushedAt is the time of the last successful push
	LastPushedAt *time.Time
}

// ResolveSKU returns the first non-empty of remote SKU override, stocking code,
// barcode and the local id.
func (p *Product) ResolveSKU() string {
	for _, candidate := range []string{p.RemoteSKU, p.DefaultCode, p.Barcode} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return strconv.FormatInt(p.ID, 10)
}

// NeedsPush reports whether the product was never created remotely or changed since its last push
func (p *Product) NeedsPush() bool {
	if !p.Sync.IsSynced() || p.LastPushedAt == nil {
		return true
	}
	return p.UpdatedAt.After(*p.LastPushedAt)
}

// UnitOfMeasureOrDefault returns the unit of measure name
func (p *Product) UnitOfMeasureOrDefault() string {
	if p.UnitOfMeasure == "" {
		return DefaultUnitOfMeasure
	}
	return p.UnitOfMeasure
}

// MarkCreated records the identity returned by a successful create.
// The returned SKU wins over the resolved one when the WMS normalizes it.
func (p *Product) MarkCreated(remoteID, remoteSKU string) {
	p.Sync = SyncedAs(remoteID)
	if remoteSKU != "" {
		p.RemoteSKU = remoteSKU
	}
}

// ApplyStock applies a pulled stock record; absent fields are left untouched.
// Returns true when anything changed.
func (p *Product) ApplyStock(rec StockRecord) bool {
	changed := false
	if rec.MinStockLevel != nil {
		p.MinStock = *rec.MinStockLevel
		changed = true
	}
	if rec.StockLevel != nil {
		p.StockLevel = *rec.StockLevel
		changed = true
	}
	return changed
}

// Ref returns the entity reference
func (p *Product) Ref() EntityRef {
	return EntityRef{Kind: EntityProduct, ID: p.ID}
}

// FailureMark returns the throttle state
func (p *Product) FailureMark() *FailureMark {
	return &p.PushFailure
}
