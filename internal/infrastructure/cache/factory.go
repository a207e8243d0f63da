package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/adsync/backend/internal/domain/shared"
	"github.com/adsync/backend/internal/infrastructure/config"
)

// SyncLockFactory creates sync locks based on configuration
type SyncLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SyncLockFactoryOption is a functional option for configuring the factory
type SyncLockFactoryOption func(*SyncLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SyncLockFactoryOption {
	return func(f *SyncLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lock
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) SyncLockFactoryOption {
	return func(f *SyncLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSyncLockFactory creates a new factory
func NewSyncLockFactory(cfg config.RedisConfig, opts ...SyncLockFactoryOption) *SyncLockFactory {
	f := &SyncLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLock creates a Redis-based sync lock
func (f *SyncLockFactory) CreateRedisLock() (shared.SyncLock, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	lock, err := NewRedisSyncLock(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis sync lock: %w", err)
	}

	return lock, nil
}

// CreateInMemoryLock creates an in-memory sync lock
// This is suitable for single-instance deployments and testing
// WARNING: In-memory locks do not share state across process instances,
// which can allow concurrent syncs of the same set in distributed deployments
func (f *SyncLockFactory) CreateInMemoryLock() shared.SyncLock {
	return NewInMemorySyncLock()
}

// CreateLock creates a sync lock based on whether Redis is available
// It tries Redis first, and falls back to in-memory if Redis is not
// available and AllowInMemoryFallback is true
func (f *SyncLockFactory) CreateLock() (shared.SyncLock, error) {
	lock, err := f.CreateRedisLock()
	if err == nil {
		f.logger.Info("using Redis sync lock")
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for sync locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory sync lock. "+
		"This may allow concurrent syncs of the same set in distributed deployments.",
		zap.Error(err),
	)
	return f.CreateInMemoryLock(), nil
}
