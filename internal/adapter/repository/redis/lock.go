package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/akib4796/omnishop-manager-sub000/internal/usecase"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// EntityLocker implements usecase.EntityLocker with SET NX locks.
type EntityLocker struct {
	client *redis.Client
	prefix string
}

// NewEntityLocker creates a new EntityLocker.
func NewEntityLocker(client *redis.Client) *EntityLocker {
	return &EntityLocker{
		client: client,
		prefix: "omnishop:",
	}
}

// Acquire takes the lock for ttl. The lock expires on its own if the holder
// dies before releasing it.
func (l *EntityLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, usecase.ErrLockNotAcquired
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
	}, nil
}
