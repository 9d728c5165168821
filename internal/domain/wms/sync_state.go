package wms

import (
	"fmt"
	"strconv"
	"strings"
)

// SyncState records whether a local entity has a known remote counterpart.
// The zero value is Unsynced.
type SyncState struct {
	remoteID string
}

// Unsynced returns the state of an entity that was never created remotely
func Unsynced() SyncState {
	return SyncState{}
}

// SyncedAs returns the state of an entity known remotely under remoteID.
// An empty or blank remoteID yields Unsynced.
func SyncedAs(remoteID string) SyncState {
	return SyncState{remoteID: strings.TrimSpace(remoteID)}
}

// IsSynced reports whether a remote counterpart exists
func (s SyncState) IsSynced() bool {
	return s.remoteID != ""
}

// RemoteID returns the remote identifier, empty when Unsynced
func (s SyncState) RemoteID() string {
	return s.remoteID
}

func (s SyncState) String() string {
	if !s.IsSynced() {
		return "Unsynced"
	}
	return fmt.Sprintf("Synced(%s)", s.remoteID)
}

// EntityKind identifies the kind of local record being synchronized
type EntityKind string

const (
	EntityProduct       EntityKind = "product"
	EntitySalesOrder    EntityKind = "sales_order"
	EntityPurchaseOrder EntityKind = "purchase_order"
	EntitySupplier      EntityKind = "supplier"
)

// IsValid checks if the entity kind is known
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityProduct, EntitySalesOrder, EntityPurchaseOrder, EntitySupplier:
		return true
	default:
		return false
	}
}

// EntityRef addresses one local record
type EntityRef struct {
	Kind EntityKind
	ID   int64
}

// String returns "kind/id", also used as a guard and cache key
func (r EntityRef) String() string {
	return string(r.Kind) + "/" + strconv.FormatInt(r.ID, 10)
}

// SyncOutcome is the result category of one driver invocation
type SyncOutcome string

const (
	// OutcomeSynced means the entity and all its dependencies were pushed
	OutcomeSynced SyncOutcome = "SYNCED"
	// OutcomeDegraded means the entity was pushed but a dependency failed
	OutcomeDegraded SyncOutcome = "DEGRADED"
	// OutcomeFailed means the entity itself was not pushed
	OutcomeFailed SyncOutcome = "FAILED"
)

// IsValid checks if the outcome is known
func (o SyncOutcome) IsValid() bool {
	switch o {
	case OutcomeSynced, OutcomeDegraded, OutcomeFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (o SyncOutcome) String() string {
	return string(o)
}

// SyncResult is returned by every sync driver instead of an error
type SyncResult struct {
	Entity               EntityRef
	Outcome              SyncOutcome
	RemoteID             string
	DegradedDependencies []EntityRef
	Err                  error
}

// Succeeded reports whether the entity itself reached the remote side
func (r SyncResult) Succeeded() bool {
	return r.Outcome == OutcomeSynced || r.Outcome == OutcomeDegraded
}

// NewSyncedResult builds a SYNCED or DEGRADED result depending on failed dependencies
func NewSyncedResult(entity EntityRef, remoteID string, degraded []EntityRef) SyncResult {
	outcome := OutcomeSynced
	if len(degraded) > 0 {
		outcome = OutcomeDegraded
	}
	return SyncResult{
		Entity:               entity,
		Outcome:              outcome,
		RemoteID:             remoteID,
		DegradedDependencies: degraded,
	}
}

// NewFailedResult builds a FAILED result
func NewFailedResult(entity EntityRef, err error, degraded []EntityRef) SyncResult {
	return SyncResult{
		Entity:               entity,
		Outcome:              OutcomeFailed,
		DegradedDependencies: degraded,
		Err:                  err,
	}
}
