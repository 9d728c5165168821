package models

import (
	"time"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// SyncColumns are the sync-state columns present on every mirrored table
type SyncColumns struct {
	RemoteID     string     `gorm:"column:wms_remote_id;type:varchar(64);not null;default:'';index"`
	FailureHash  string     `gorm:"column:wms_failure_hash;type:varchar(64);not null;default:''"`
	FailureAt    *time.Time `gorm:"column:wms_failure_at"`
	LastPushedAt *time.Time `gorm:"column:wms_last_pushed_at"`
}

// SyncState returns the domain sync-state
func (c SyncColumns) SyncState() wms.SyncState {
	return wms.SyncedAs(c.RemoteID)
}

// FailureMark returns the domain throttle state
func (c SyncColumns) FailureMark() wms.FailureMark {
	return wms.FailureMark{Hash: c.FailureHash, At: c.FailureAt}
}

// FromDomain populates the columns from domain sync-state
func (c *SyncColumns) FromDomain(state wms.SyncState, mark wms.FailureMark, lastPushedAt *time.Time) {
	c.RemoteID = state.RemoteID()
	c.FailureHash = mark.Hash
	c.FailureAt = mark.At
	c.LastPushedAt = lastPushedAt
}

// Updates returns the column map for a sync-state save.
// An empty remote id is left out: a stored remote id is never cleared.
func (c SyncColumns) Updates() map[string]any {
	updates := map[string]any{
		"wms_failure_hash":   c.FailureHash,
		"wms_failure_at":     c.FailureAt,
		"wms_last_pushed_at": c.LastPushedAt,
	}
	if c.RemoteID != "" {
		updates["wms_remote_id"] = c.RemoteID
	}
	return updates
}
