package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormProductRepository implements wms.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*wms.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wms.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySKU matches the remote SKU override first, then the stocking code
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*wms.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, wms.ErrNotFound
	}

	for _, column := range []string{"wms_remote_sku", "default_code"} {
		var model models.ProductModel
		err := r.db.WithContext(ctx).
			Where(column+" = ?", sku).
			Order("id ASC").
			First(&model).Error
		if err == nil {
			return model.ToDomain(), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, wms.ErrNotFound
}

// FindForSync returns products never created remotely or changed since their last push
func (r *GormProductRepository) FindForSync(ctx context.Context, limit int) ([]wms.Product, error) {
	var productModels []models.ProductModel
	query := r.db.WithContext(ctx).
		Where("wms_remote_id = '' OR wms_last_pushed_at IS NULL OR updated_at > wms_last_pushed_at").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]wms.Product, len(productModels))
	for i := range productModels {
		products[i] = *productModels[i].ToDomain()
	}
	return products, nil
}

// Save writes the push-owned sync-state columns
func (r *GormProductRepository) Save(ctx context.Context, p *wms.Product) error {
	return saveSyncColumns(ctx, r.db, &models.ProductModel{}, p.ID, models.SyncUpdatesFromProduct(p))
}

// SaveStock writes the pulled stock level and minimum stock
func (r *GormProductRepository) SaveStock(ctx context.Context, id int64, stockLevel, minStock decimal.Decimal) error {
	return saveSyncColumns(ctx, r.db, &models.ProductModel{}, id, models.StockUpdates(stockLevel, minStock))
}

// saveSyncColumns updates only the given columns of one row.
// The row must exist: the connector never inserts ERP records.
func saveSyncColumns(ctx context.Context, db *gorm.DB, model any, id int64, updates map[string]any) error {
	result := db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return wms.ErrNotFound
	}
	return nil
}
