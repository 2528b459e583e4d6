// Package lease provides fleet-wide mutual exclusion for worker identities.
package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease grants a renewable, token-fenced exclusive hold on a worker
// identity. At most one holder exists per identity across the fleet.
type Lease interface {
	// Acquire tries to take the lease. ok is false when another holder
	// exists; the returned token fences all later renew/release calls.
	Acquire(ctx context.Context, workerID string, ttl time.Duration) (token string, ok bool, err error)
	// Renew extends the lease if token still matches the current holder.
	Renew(ctx context.Context, workerID, token string, ttl time.Duration) (bool, error)
	// Release drops the lease if token still matches. Releasing a lease
	// taken over by another holder is a no-op.
	Release(ctx context.Context, workerID, token string) error
}

// Compare-token scripts so a stale holder can never extend or delete a
// newer holder's lease.
var (
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// RedisLease implements Lease on a shared Redis instance using SET NX PX
// plus compare-token Lua scripts.
type RedisLease struct {
	client *redis.Client
	prefix string
}

func NewRedisLease(client *redis.Client, prefix string) *RedisLease {
	return &RedisLease{client: client, prefix: prefix}
}

func (l *RedisLease) key(workerID string) string {
	return fmt.Sprintf("%s:lease:%s", l.prefix, workerID)
}

func (l *RedisLease) Acquire(ctx context.Context, workerID string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(workerID), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("lease acquire %s: %w", workerID, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisLease) Renew(ctx context.Context, workerID, token string, ttl time.Duration) (bool, error) {
	res, err := renewScript.Run(ctx, l.client, []string{l.key(workerID)}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("lease renew %s: %w", workerID, err)
	}
	return res == 1, nil
}

func (l *RedisLease) Release(ctx context.Context, workerID, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(workerID)}, token).Err(); err != nil {
		return fmt.Errorf("lease release %s: %w", workerID, err)
	}
	return nil
}
