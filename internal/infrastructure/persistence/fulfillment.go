package persistence

import (
	"context"
	"fmt"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFulfillment implements wms.Fulfillment against the ERP delivery tables
type GormFulfillment struct {
	db *gorm.DB
}

// NewGormFulfillment creates a new GormFulfillment
func NewGormFulfillment(db *gorm.DB) *GormFulfillment {
	return &GormFulfillment{db: db}
}

// ValidatePicking writes the done quantities of every line and marks the picking done
func (f *GormFulfillment) ValidatePicking(ctx context.Context, order *wms.SalesOrder, picking *wms.Picking) error {
	if picking.IsFinal() {
		return nil
	}

	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range picking.Lines {
			if err := tx.Model(&models.PickingLineModel{}).
				Where("id = ? AND picking_id = ?", line.ID, picking.ID).
				Update("done_qty", line.DoneQty).Error; err != nil {
				return err
			}
		}

		result := tx.Model(&models.PickingModel{}).
			Where("id = ? AND order_id = ? AND state NOT IN ?", picking.ID, order.ID,
				[]string{string(wms.PickingStateDone), string(wms.PickingStateCancel)}).
			Update("state", string(wms.PickingStateDone))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("picking %s: %w", picking.Name, wms.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	picking.State = wms.PickingStateDone
	return nil
}

// ConfirmOrder moves a draft or sent order to the sale state
func (f *GormFulfillment) ConfirmOrder(ctx context.Context, order *wms.SalesOrder) error {
	if order.IsConfirmed() {
		return nil
	}

	result := f.db.WithContext(ctx).Model(&models.SalesOrderModel{}).
		Where("id = ? AND state IN ?", order.ID, []string{string(wms.OrderStateDraft), string(wms.OrderStateSent)}).
		Update("state", string(wms.OrderStateSale))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order %s cannot be confirmed: %w", order.Name, wms.ErrNotFound)
	}

	order.State = wms.OrderStateSale
	return nil
}
