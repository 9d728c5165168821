package cache

import (
	"fmt"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/erp/wmsconnector/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ClosablePushGuard is a push guard holding resources that must be released on shutdown
type ClosablePushGuard interface {
	wms.PushGuard
	Close() error
}

// PushGuardFactory creates push guards based on configuration
type PushGuardFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// PushGuardFactoryOption is a functional option for configuring the factory
type PushGuardFactoryOption func(*PushGuardFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) PushGuardFactoryOption {
	return func(f *PushGuardFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory guard when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) PushGuardFactoryOption {
	return func(f *PushGuardFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPushGuardFactory creates a new factory
func NewPushGuardFactory(cfg config.RedisConfig, opts ...PushGuardFactoryOption) *PushGuardFactory {
	f := &PushGuardFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisGuard creates a Redis-backed push guard
func (f *PushGuardFactory) CreateRedisGuard() (ClosablePushGuard, error) {
	guard, err := NewRedisPushGuard(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis push guard: %w", err)
	}
	return guard, nil
}

// CreateGuard returns a Redis guard when Redis is configured and reachable, otherwise an in-memory one.
// With fallback disabled an unreachable Redis is an error.
func (f *PushGuardFactory) CreateGuard() (ClosablePushGuard, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory push guard")
		return NewInMemoryPushGuard(), nil
	}

	guard, err := f.CreateRedisGuard()
	if err == nil {
		f.logger.Info("Using Redis push guard", zap.String("addr", f.redisConfig.Addr()))
		return guard, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for push guard but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory push guard. "+
		"Concurrent connector instances may push the same record twice.",
		zap.Error(err),
	)
	return NewInMemoryPushGuard(), nil
}
