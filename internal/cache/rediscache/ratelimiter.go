package rediscache

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// AllowN adds n to the counter of the current fixed window and reports whether
// the total stays within limit. Returns (allowed, currentCount).
func (r *RedisCache) AllowN(ctx context.Context, name string, n, limit int64, window time.Duration) (bool, int64, error) {
	bucket := time.Now().UnixNano() / int64(window)
	key := r.key("quota", name, strconv.FormatInt(bucket, 10))

	pipe := r.c.TxPipeline()
	incr := pipe.IncrBy(ctx, key, n)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	cur := incr.Val()
	return cur <= limit, cur, nil
}
