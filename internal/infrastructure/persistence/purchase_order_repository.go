package persistence

import (
	"context"
	"errors"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// confirmedPurchaseStates are the states eligible for inbound announcement
var confirmedPurchaseStates = []string{string(wms.PurchaseStatePurchase), string(wms.PurchaseStateDone)}

// GormPurchaseOrderRepository implements wms.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func (r *GormPurchaseOrderRepository) withAggregate(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Lines.Product")
}

// FindByID finds a purchase order by its ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id int64) (*wms.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.withAggregate(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wms.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForInbound returns confirmed purchase orders never announced or changed since their last push
func (r *GormPurchaseOrderRepository) FindForInbound(ctx context.Context, limit int) ([]wms.PurchaseOrder, error) {
	var poModels []models.PurchaseOrderModel
	query := r.withAggregate(ctx).
		Where("state IN ?", confirmedPurchaseStates).
		Where("wms_remote_id = '' OR wms_last_pushed_at IS NULL OR updated_at > wms_last_pushed_at").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&poModels).Error; err != nil {
		return nil, err
	}

	orders := make([]wms.PurchaseOrder, len(poModels))
	for i := range poModels {
		orders[i] = *poModels[i].ToDomain()
	}
	return orders, nil
}

// Save writes the purchase order's sync-state columns
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, po *wms.PurchaseOrder) error {
	return saveSyncColumns(ctx, r.db, &models.PurchaseOrderModel{}, po.ID, models.SyncUpdatesFromPurchaseOrder(po))
}
