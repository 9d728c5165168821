package persistence

import (
	"context"
	"errors"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSalesOrderRepository implements wms.SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// withAggregate preloads everything the payload builder and reconciler read
func (r *GormSalesOrderRepository) withAggregate(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Partner").
		Preload("ShippingPartner").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Lines.Product").
		Preload("Pickings", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Pickings.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// FindByID finds a sales order by its ID
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id int64) (*wms.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.withAggregate(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wms.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a sales order by its order reference
func (r *GormSalesOrderRepository) FindByName(ctx context.Context, name string) (*wms.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.withAggregate(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wms.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPendingPush returns orders flagged for a retried push, oldest first
func (r *GormSalesOrderRepository) FindPendingPush(ctx context.Context, limit int) ([]wms.SalesOrder, error) {
	var orderModels []models.SalesOrderModel
	query := r.withAggregate(ctx).
		Where("wms_pending_push = ?", true).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]wms.SalesOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Save writes the push-owned sync-state columns
func (r *GormSalesOrderRepository) Save(ctx context.Context, o *wms.SalesOrder) error {
	return saveSyncColumns(ctx, r.db, &models.SalesOrderModel{}, o.ID, models.SyncUpdatesFromSalesOrder(o))
}

// SaveRemoteStatus writes the columns applied by the order status pull
func (r *GormSalesOrderRepository) SaveRemoteStatus(ctx context.Context, o *wms.SalesOrder) error {
	return saveSyncColumns(ctx, r.db, &models.SalesOrderModel{}, o.ID, models.RemoteStatusUpdatesFromSalesOrder(o))
}
