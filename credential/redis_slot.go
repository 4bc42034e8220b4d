package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSlotUnavailable wraps transport failures talking to a slot backend.
var ErrSlotUnavailable = errors.New("credential slot unavailable")

// RedisSlot is a Redis-backed [Slot] for multi-process workers sharing one
// logical session. The key is namespaced per logical session and every write
// carries a TTL, so a credential cannot outlive its exposure bound even if
// no process survives to clear it.
//
//	Docs: docs/credential.md
type RedisSlot struct {
	redis redis.UniversalClient
	key   string
}

// NewRedisSlot creates a [RedisSlot] holding the credential under the given
// key. sessionKey should be stable across the processes that share the
// session (for example a deployment or workspace identifier).
func NewRedisSlot(client redis.UniversalClient, sessionKey string) *RedisSlot {
	return &RedisSlot{redis: client, key: "cred:" + sessionKey}
}

// Load implements [Slot]. An absent key reads as empty, not as an error.
func (r *RedisSlot) Load(ctx context.Context) (string, error) {
	token, err := r.redis.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	return token, nil
}

// Store implements [Slot]. ttl must be positive: Redis is a durable backend
// and an unbounded credential key is not an acceptable failure mode.
func (r *RedisSlot) Store(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: non-positive ttl", ErrSlotUnavailable)
	}
	if err := r.redis.Set(ctx, r.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	return nil
}

// Clear implements [Slot].
func (r *RedisSlot) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	return nil
}
