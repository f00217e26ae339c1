package acctlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while we still own it, so an expired
// lease cannot release a lock another process has since taken.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisRegistry serializes accounts across processes using SET NX with TTL.
// Each lease carries a random ownership value; release is a Lua script that
// checks ownership atomically.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a cross-process registry. The TTL bounds how long a
// crashed cycle can keep an account locked.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

// TryAcquire takes the account's Redis lock if free.
func (r *RedisRegistry) TryAcquire(ctx context.Context, accountID string) (Lease, bool, error) {
	b := make([]byte, 16)
	rand.Read(b)
	value := hex.EncodeToString(b)
	key := lockKey(accountID)

	ok, err := r.client.SetNX(ctx, key, value, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquiring account lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{client: r.client, key: key, value: value}, true, nil
}

type redisLease struct {
	client *redis.Client
	key    string
	value  string
}

func (l *redisLease) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Result()
	if err != nil {
		return fmt.Errorf("releasing account lock %s: %w", l.key, err)
	}
	return nil
}

func lockKey(accountID string) string {
	return "adpilot:cycle:" + accountID
}
