package wmssync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/logger"
)

// DefaultThrottleWindow is the suppression window for identical failure notifications
const DefaultThrottleWindow = 24 * time.Hour

// FailureThrottle deduplicates failure notifications per (entity, reason).
// Its state lives on the entity; callers persist the entity after Notify or Clear.
type FailureThrottle struct {
	window   time.Duration
	notifier wms.Notifier
	now      func() time.Time
	logger   *zap.Logger
}

// NewFailureThrottle creates a throttle. A non-positive window selects DefaultThrottleWindow.
func NewFailureThrottle(notifier wms.Notifier, window time.Duration, log *zap.Logger) *FailureThrottle {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FailureThrottle{
		window:   window,
		notifier: notifier,
		now:      time.Now,
		logger:   log.Named("failure_throttle"),
	}
}

// Window returns the suppression window
func (t *FailureThrottle) Window() time.Duration {
	return t.window
}

// ReasonHash returns the hex SHA-256 digest of the whitespace-trimmed reason
func ReasonHash(reason string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(reason)))
	return hex.EncodeToString(sum[:])
}

// Notify posts reason to the entity's activity trail unless the same reason was posted
// within the window. Returns true when a note was posted.
func (t *FailureThrottle) Notify(ctx context.Context, entity wms.Throttled, reason string) bool {
	mark := entity.FailureMark()
	hash := ReasonHash(reason)
	now := t.now()
	log := logger.For(ctx, t.logger).With(zap.Stringer("entity", entity.Ref()))

	if mark.Hash == hash && mark.At != nil && now.Sub(*mark.At) < t.window {
		log.Debug("Duplicate failure notification suppressed", zap.Time("last_notified_at", *mark.At))
		return false
	}

	if err := t.notifier.Notify(ctx, entity.Ref(), strings.TrimSpace(reason)); err != nil {
		log.Warn("Failed to post failure notification", zap.Error(err))
		return false
	}
	mark.Record(hash, now)
	return true
}

// Clear resets the entity's throttle state after a successful operation
func (t *FailureThrottle) Clear(entity wms.Throttled) {
	entity.FailureMark().Clear()
}
