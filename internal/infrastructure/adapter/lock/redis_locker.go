package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker is a single-instance Redis lock built on SET NX PX
type RedisLocker struct {
	client redis.UniversalClient
	script *redis.Script
	prefix string
}

// NewRedisLocker creates a locker whose keys are namespaced by prefix
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{
		client: client,
		script: redis.NewScript(releaseScript),
		prefix: prefix,
	}
}

// TryLock acquires key for ttl and returns the owner token.
// ok is false when another owner holds the key.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release frees key if token still owns it and reports whether it did
func (l *RedisLocker) Release(ctx context.Context, key, token string) (bool, error) {
	if key == "" || token == "" {
		return false, nil
	}
	deleted, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, token).Int64()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

// Ping checks the connection
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
