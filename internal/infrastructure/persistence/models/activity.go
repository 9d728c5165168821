package models

import (
	"time"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/google/uuid"
)

// ActivityNoteModel is one note on a record's activity trail
type ActivityNoteModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntityKind string    `gorm:"type:varchar(32);not null;index:idx_activity_notes_entity,priority:1"`
	EntityID   int64     `gorm:"not null;index:idx_activity_notes_entity,priority:2"`
	Author     string    `gorm:"type:varchar(64);not null"`
	Message    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ActivityNoteModel) TableName() string {
	return "activity_notes"
}

// Ref returns the record the note is attached to
func (m *ActivityNoteModel) Ref() wms.EntityRef {
	return wms.EntityRef{Kind: wms.EntityKind(m.EntityKind), ID: m.EntityID}
}
