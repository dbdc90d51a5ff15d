package rediscache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a held run lock.
type Lock struct {
	r     *RedisCache
	key   string
	token string
}

// AcquireLock takes the named lock with SET NX. ok is false when another run
// holds it.
func (r *RedisCache) AcquireLock(ctx context.Context, name string, ttl time.Duration) (*Lock, bool, error) {
	key := r.key("lock", name)
	token := uuid.NewString()

	ok, err := r.c.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, "redis lock")
	}
	if !ok {
		return nil, false, nil
	}
	return &Lock{r: r, key: key, token: token}, true, nil
}

// Release drops the lock if it is still ours.
func (l *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.r.c, []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		return errors.Wrap(err, "redis unlock")
	}
	return nil
}
