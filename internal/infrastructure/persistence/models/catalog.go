package models

import (
	"time"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for a stockable product
type ProductModel struct {
	ID            int64           `gorm:"primaryKey"`
	Name          string          `gorm:"type:varchar(200);not null"`
	DefaultCode   string          `gorm:"type:varchar(64);not null;default:'';index"`
	Barcode       string          `gorm:"type:varchar(64);not null;default:''"`
	MinStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitOfMeasure string          `gorm:"column:uom_name;type:varchar(50)"`
	IsPack        bool            `gorm:"not null;default:false"`
	RemoteSKU     string          `gorm:"column:wms_remote_sku;type:varchar(64);not null;default:'';index"`
	StockLevel    decimal.Decimal `gorm:"column:wms_stock_level;type:decimal(18,4);not null;default:0"`
	SyncColumns
	// UpdatedAt is maintained by the ERP
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *wms.Product {
	return &wms.Product{
		ID:            m.ID,
		Name:          m.Name,
		DefaultCode:   m.DefaultCode,
		Barcode:       m.Barcode,
		MinStock:      m.MinStock,
		UnitOfMeasure: m.UnitOfMeasure,
		IsPack:        m.IsPack,
		RemoteSKU:     m.RemoteSKU,
		Sync:          m.SyncState(),
		StockLevel:    m.StockLevel,
		PushFailure:   m.FailureMark(),
		UpdatedAt:     m.UpdatedAt,
		LastPushedAt:  m.LastPushedAt,
	}
}

// SyncUpdatesFromProduct returns the columns written when a push saves a product
func SyncUpdatesFromProduct(p *wms.Product) map[string]any {
	var cols SyncColumns
	cols.FromDomain(p.Sync, p.PushFailure, p.LastPushedAt)
	updates := cols.Updates()
	updates["wms_remote_sku"] = p.RemoteSKU
	return updates
}

// StockUpdates returns the columns written by the stock pull
func StockUpdates(stockLevel, minStock decimal.Decimal) map[string]any {
	return map[string]any{
		"wms_stock_level": stockLevel,
		"min_stock":       minStock,
	}
}
