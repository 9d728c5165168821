package handler

import (
	"context"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/persistence"
	"github.com/erp/wmsconnector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const defaultNotesLimit = 50

// NoteLister reads an entity's activity trail
type NoteLister interface {
	List(ctx context.Context, entity wms.EntityRef, limit int) ([]persistence.ActivityNote, error)
}

// NotesHandler exposes the failure and delivery notes posted by the connector
type NotesHandler struct {
	BaseHandler
	notes NoteLister
}

// NewNotesHandler creates a new NotesHandler
func NewNotesHandler(notes NoteLister) *NotesHandler {
	return &NotesHandler{notes: notes}
}

// RegisterRoutes mounts the notes endpoint
func (h *NotesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sync/:kind/:id/notes", h.List)
}

// List returns the newest notes first
func (h *NotesHandler) List(c *gin.Context) {
	var uri dto.EntityURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var query dto.NotesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	limit := query.Limit
	if limit == 0 {
		limit = defaultNotesLimit
	}

	notes, err := h.notes.List(c.Request.Context(), uri.Ref(), limit)
	if err != nil {
		h.Error(c, dto.ErrCodeInternal, "failed to load notes")
		return
	}

	out := make([]dto.NoteResponse, len(notes))
	for i, n := range notes {
		out[i] = dto.NoteResponse{
			ID:        n.ID.String(),
			Author:    n.Author,
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		}
	}
	h.Success(c, out)
}
