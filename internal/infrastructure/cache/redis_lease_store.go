package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/config"
)

const defaultLeasePrefix = "commission:lease:"

// releaseScript deletes the key only while this holder still owns it, so a
// lease that expired and was taken over is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLeaseStore grants leases shared by every worker process
type RedisLeaseStore struct {
	client    redis.UniversalClient
	keyPrefix string
	holder    string
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisLeaseStore creates a lease store on client. Each store instance is
// a distinct holder.
func NewRedisLeaseStore(client redis.UniversalClient, keyPrefix string) *RedisLeaseStore {
	if keyPrefix == "" {
		keyPrefix = defaultLeasePrefix
	}
	return &RedisLeaseStore{
		client:    client,
		keyPrefix: keyPrefix,
		holder:    uuid.NewString(),
	}
}

// Acquire takes key for ttl with SET NX. It returns false while another
// holder owns it.
func (s *RedisLeaseStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, s.holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %s: %w", key, err)
	}
	return ok, nil
}

// Release gives key up if this store still holds it
func (s *RedisLeaseStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.keyPrefix + key}, s.holder).Err(); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", key, err)
	}
	return nil
}

var _ commission.LeaseStore = (*RedisLeaseStore)(nil)
