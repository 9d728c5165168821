package wms

import "time"

// FailureMark is the failure-notification throttle state stored on an entity:
// the digest of the last notified failure reason and when it was posted.
type FailureMark struct {
	Hash string
	At   *time.Time
}

// IsZero reports whether no failure is recorded
func (m FailureMark) IsZero() bool {
	return m.Hash == "" && m.At == nil
}

// Record stores a freshly notified failure
func (m *FailureMark) Record(hash string, at time.Time) {
	m.Hash = hash
	m.At = &at
}

// Clear resets the mark
func (m *FailureMark) Clear() {
	m.Hash = ""
	m.At = nil
}

// Throttled is implemented by every entity that carries a FailureMark
type Throttled interface {
	Ref() EntityRef
	FailureMark() *FailureMark
}
