// broker/locker.go
package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token, so a run
// that outlived its TTL cannot free a lock now owned by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a single-key mutex shared by every instance pointed at the
// same Redis.
type RedisLocker struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, key: key, ttl: ttl}
}

// Acquire takes the lock or returns xerrors.ErrRefreshInProgress when another
// holder has it. The lock expires on its own after the TTL.
func (l *RedisLocker) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := ulid.Make().String()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, xerrors.ErrRefreshInProgress
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", l.key, err)
		}
		return nil
	}
	return release, nil
}
