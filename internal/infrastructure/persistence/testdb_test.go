package persistence

import (
	"testing"
	"time"

	"github.com/erp/wmsconnector/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupWMSTestDB opens an in-memory SQLite database with every connector table migrated
func setupWMSTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	// Every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.PartnerModel{},
		&models.ProductModel{},
		&models.SalesOrderModel{},
		&models.SalesOrderLineModel{},
		&models.PickingModel{},
		&models.PickingLineModel{},
		&models.PurchaseOrderModel{},
		&models.PurchaseOrderLineModel{},
		&models.ActivityNoteModel{},
	)
	require.NoError(t, err)

	return db
}

var testEpoch = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

func ptrInt64(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func seedPartner(t *testing.T, db *gorm.DB, m models.PartnerModel) {
	t.Helper()
	require.NoError(t, db.Create(&m).Error)
}

func seedProduct(t *testing.T, db *gorm.DB, m models.ProductModel) {
	t.Helper()
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = testEpoch
	}
	require.NoError(t, db.Create(&m).Error)
}
