// Package wms contains the warehouse synchronization bounded context.
// It models the ERP records that are mirrored into an external warehouse-management
// system and the sync-state recorded on them.
//
// Key concepts:
//   - SyncState: explicit Unsynced / Synced(remoteID) state per entity
//   - SyncResult: outcome of one driver invocation (SYNCED, DEGRADED, FAILED)
//   - FailureMark: per-entity failure notification throttle state
//   - Gateway: port to the remote WMS API
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package wms
