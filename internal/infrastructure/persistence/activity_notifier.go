package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultNoteAuthor is recorded on notes posted by the connector
const DefaultNoteAuthor = "wms-connector"

// ActivityNote is a note read back from a record's activity trail
type ActivityNote struct {
	ID        uuid.UUID     `json:"id"`
	Entity    wms.EntityRef `json:"-"`
	Author    string        `json:"author"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

// GormActivityNotifier implements wms.Notifier by appending to the activity_notes table
type GormActivityNotifier struct {
	db     *gorm.DB
	author string
	now    func() time.Time
}

// NewGormActivityNotifier creates a new GormActivityNotifier
func NewGormActivityNotifier(db *gorm.DB) *GormActivityNotifier {
	return &GormActivityNotifier{
		db:     db,
		author: DefaultNoteAuthor,
		now:    time.Now,
	}
}

// Notify posts one note on the entity
func (n *GormActivityNotifier) Notify(ctx context.Context, entity wms.EntityRef, message string) error {
	if !entity.Kind.IsValid() {
		return fmt.Errorf("unknown entity kind %q", entity.Kind)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}

	note := models.ActivityNoteModel{
		ID:         uuid.New(),
		EntityKind: string(entity.Kind),
		EntityID:   entity.ID,
		Author:     n.author,
		Message:    message,
		CreatedAt:  n.now().UTC(),
	}
	return n.db.WithContext(ctx).Create(&note).Error
}

// List returns the most recent notes of an entity, newest first
func (n *GormActivityNotifier) List(ctx context.Context, entity wms.EntityRef, limit int) ([]ActivityNote, error) {
	var noteModels []models.ActivityNoteModel
	query := n.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", string(entity.Kind), entity.ID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&noteModels).Error; err != nil {
		return nil, err
	}

	notes := make([]ActivityNote, len(noteModels))
	for i, m := range noteModels {
		notes[i] = ActivityNote{
			ID:        m.ID,
			Entity:    m.Ref(),
			Author:    m.Author,
			Message:   m.Message,
			CreatedAt: m.CreatedAt,
		}
	}
	return notes, nil
}
