package wmssync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/logger"
)

// DefaultGuardTTL bounds how long a crashed worker can keep an entity locked
const DefaultGuardTTL = 2 * time.Minute

// Deps are the collaborators shared by the sync drivers
type Deps struct {
	Gateway  wms.Gateway
	Notifier wms.Notifier
	Throttle *FailureThrottle
	// Guard is optional; without it pushes are not serialized per entity
	Guard    wms.PushGuard
	GuardTTL time.Duration
	Logger   *zap.Logger
}

// pusher carries the steps every driver shares: the per-entity guard, success notes and
// throttled failure notes
type pusher struct {
	gateway  wms.Gateway
	notifier wms.Notifier
	throttle *FailureThrottle
	guard    wms.PushGuard
	guardTTL time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func newPusher(deps Deps, name string) pusher {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	throttle := deps.Throttle
	if throttle == nil {
		throttle = NewFailureThrottle(deps.Notifier, DefaultThrottleWindow, log)
	}
	ttl := deps.GuardTTL
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return pusher{
		gateway:  deps.Gateway,
		notifier: deps.Notifier,
		throttle: throttle,
		guard:    deps.Guard,
		guardTTL: ttl,
		now:      time.Now,
		logger:   log.Named(name),
	}
}

func (p *pusher) log(ctx context.Context, ref wms.EntityRef) *zap.Logger {
	return logger.For(ctx, p.logger).With(
		zap.String("entity", string(ref.Kind)),
		zap.Int64("entity_id", ref.ID),
	)
}

// GuardKey is the push guard key of an entity
func GuardKey(ref wms.EntityRef) string {
	return "wms:push:" + ref.String()
}

// acquire takes the entity's push guard. A held guard yields wms.ErrEntityBusy.
func (p *pusher) acquire(ctx context.Context, ref wms.EntityRef) (func(), error) {
	if p.guard == nil {
		return func() {}, nil
	}
	key := GuardKey(ref)
	ok, err := p.guard.Acquire(ctx, key, p.guardTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire push guard for %s: %w", ref, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", wms.ErrEntityBusy, ref)
	}
	return func() {
		if err := p.guard.Release(context.WithoutCancel(ctx), key); err != nil {
			p.log(ctx, ref).Warn("Failed to release push guard", zap.Error(err))
		}
	}, nil
}

// note posts an informational message to the activity trail
func (p *pusher) note(ctx context.Context, ref wms.EntityRef, message string) {
	if err := p.notifier.Notify(ctx, ref, message); err != nil {
		p.log(ctx, ref).Warn("Failed to post activity note", zap.Error(err))
	}
}

// succeeded clears the throttle state and posts the success note
func (p *pusher) succeeded(ctx context.Context, entity wms.Throttled, message string) {
	p.throttle.Clear(entity)
	p.note(ctx, entity.Ref(), message)
}

// failed logs the failure and posts a throttled failure note
func (p *pusher) failed(ctx context.Context, entity wms.Throttled, reason string, err error) {
	p.log(ctx, entity.Ref()).Error("WMS push failed", zap.Error(err))
	p.throttle.Notify(ctx, entity, reason)
}

// persist saves the entity. A failed save after a remote success is still a failure:
// the remote id is lost.
func (p *pusher) persist(ctx context.Context, ref wms.EntityRef, save func() error) error {
	if err := save(); err != nil {
		p.log(ctx, ref).Error("Failed to persist sync-state", zap.Error(err))
		return fmt.Errorf("persist sync-state of %s: %w", ref, err)
	}
	return nil
}

// dependencyFailures collects the dependencies a parent push could not sync.
// Their reasons are folded into the parent's one note per call, so a failing parent
// stays throttled as a whole.
type dependencyFailures struct {
	refs    []wms.EntityRef
	reasons []string
}

func (f *dependencyFailures) add(ref wms.EntityRef, reason string) {
	f.refs = append(f.refs, ref)
	f.reasons = append(f.reasons, reason)
}

func (f *dependencyFailures) merge(other dependencyFailures) {
	f.refs = append(f.refs, other.refs...)
	f.reasons = append(f.reasons, other.reasons...)
}

// Refs returns the degraded dependencies, nil when there are none
func (f dependencyFailures) Refs() []wms.EntityRef {
	return f.refs
}

// annotate appends the dependency reasons to message
func (f dependencyFailures) annotate(message string) string {
	if len(f.reasons) == 0 {
		return message
	}
	return strings.TrimSpace(message) + " " + strings.Join(f.reasons, " ")
}
