package cache

import (
	"github.com/redis/go-redis/v9"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"go.uber.org/zap"
)

// LeaseStoreFactory picks the lease store for the configured deployment
type LeaseStoreFactory struct {
	client *redis.Client
	logger *zap.Logger
}

// NewLeaseStoreFactory creates a factory. client may be nil when Redis is
// not configured.
func NewLeaseStoreFactory(client *redis.Client, logger *zap.Logger) *LeaseStoreFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaseStoreFactory{client: client, logger: logger}
}

// Create returns a Redis-backed store when a client is available and an
// in-memory store otherwise. The in-memory store does not coordinate
// separate processes, so it is only safe with a single worker.
func (f *LeaseStoreFactory) Create() commission.LeaseStore {
	if f.client != nil {
		f.logger.Info("Using Redis lease store")
		return NewRedisLeaseStore(f.client, defaultLeasePrefix)
	}
	f.logger.Warn("Redis not configured, using in-memory lease store; run a single worker")
	return NewInMemoryLeaseStore()
}
