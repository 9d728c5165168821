// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// The tables are owned by the ERP. The connector reads business columns and writes only
// the wms_* sync columns, so every model keeps its ERP-maintained updated_at untouched.
//
// Structure:
// - base.go: SyncColumns shared by every mirrored record
// - partner.go: customers, delivery addresses and suppliers
// - catalog.go: products
// - trade.go: sales orders, pickings and purchase orders
// - activity.go: activity notes posted on records
package models
