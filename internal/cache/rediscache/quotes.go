package rediscache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/pkg/errors"
)

func (r *RedisCache) GetQuote(ctx context.Context, symbol string) (models.Quote, bool, error) {
	b, ok, err := r.get(ctx, r.key("quote", strings.ToUpper(symbol)))
	if err != nil || !ok {
		return models.Quote{}, false, err
	}
	var q models.Quote
	if err := json.Unmarshal(b, &q); err != nil {
		return models.Quote{}, false, errors.Wrap(err, "decode cached quote")
	}
	return q, true, nil
}

func (r *RedisCache) SetQuote(ctx context.Context, q models.Quote, ttl time.Duration) error {
	b, err := json.Marshal(q)
	if err != nil {
		return errors.Wrap(err, "encode quote")
	}
	return r.set(ctx, r.key("quote", strings.ToUpper(q.Symbol)), b, ttl)
}
