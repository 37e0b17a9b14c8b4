package lock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "lock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a compare-and-delete release.
type RedisLocker struct {
	client redis.UniversalClient
	opts   Options
	prefix string
}

// NewRedisLocker creates a RedisLocker on top of an existing client.
func NewRedisLocker(client redis.UniversalClient, opts Options) *RedisLocker {
	return &RedisLocker{
		client: client,
		opts:   opts.withDefaults(),
		prefix: defaultKeyPrefix,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	if l.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	fullKey := l.prefix + key
	token := uuid.NewString()
	err := poll(ctx, l.opts, func(ctx context.Context) (bool, error) {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.opts.TTL).Result()
		if err != nil {
			return false, fmt.Errorf("failed to set lock in redis: %w", err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return &redisLease{client: l.client, key: key, fullKey: fullKey, token: token}, nil
}

type redisLease struct {
	client  redis.UniversalClient
	key     string
	fullKey string
	token   string
}

func (r *redisLease) Key() string { return r.key }

func (r *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, r.client, []string{r.fullKey}, r.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock in redis: %w", err)
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}
