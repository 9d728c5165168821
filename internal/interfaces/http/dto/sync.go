package dto

import (
	"time"

	"github.com/erp/wmsconnector/internal/application/wmssync"
	"github.com/erp/wmsconnector/internal/domain/wms"
)

// EntityURI addresses one local record
type EntityURI struct {
	Kind string `uri:"kind" binding:"required,oneof=product sales_order purchase_order"`
	ID   int64  `uri:"id" binding:"required,min=1"`
}

// Ref returns the domain reference
func (u EntityURI) Ref() wms.EntityRef {
	return wms.EntityRef{Kind: wms.EntityKind(u.Kind), ID: u.ID}
}

// PushQuery controls a manual push
type PushQuery struct {
	// Silent suppresses connector logging for this request
	Silent bool `form:"silent"`
}

// RunJobQuery controls a manual job run
type RunJobQuery struct {
	Limit  int  `form:"limit" binding:"omitempty,min=1,max=1000"`
	Silent bool `form:"silent"`
}

// NotesQuery pages the activity trail
type NotesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// EntityRefResponse is a serialized entity reference
type EntityRefResponse struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// SyncResultResponse is the outcome of a manual push
type SyncResultResponse struct {
	Entity               EntityRefResponse   `json:"entity"`
	Outcome              string              `json:"outcome"`
	RemoteID             string              `json:"remote_id,omitempty"`
	DegradedDependencies []EntityRefResponse `json:"degraded_dependencies,omitempty"`
	Error                string              `json:"error,omitempty"`
}

// NewSyncResultResponse converts a driver result
func NewSyncResultResponse(res wms.SyncResult) SyncResultResponse {
	out := SyncResultResponse{
		Entity:   EntityRefResponse{Kind: string(res.Entity.Kind), ID: res.Entity.ID},
		Outcome:  res.Outcome.String(),
		RemoteID: res.RemoteID,
	}
	for _, dep := range res.DegradedDependencies {
		out.DegradedDependencies = append(out.DegradedDependencies, EntityRefResponse{Kind: string(dep.Kind), ID: dep.ID})
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// RunSummaryResponse is the outcome of a manual job run
type RunSummaryResponse struct {
	wmssync.RunSummary
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// NewRunSummaryResponse converts a job summary
func NewRunSummaryResponse(s wmssync.RunSummary) RunSummaryResponse {
	return RunSummaryResponse{
		RunSummary: s,
		Duration:   s.Finished.Sub(s.Started).Round(time.Millisecond).String(),
		Error:      s.ErrorMessage(),
	}
}

// NoteResponse is one activity trail entry
type NoteResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthResponse reports local and remote availability
type HealthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database,omitempty"`
	WMS      string    `json:"wms,omitempty"`
	Time     time.Time `json:"time"`
}
