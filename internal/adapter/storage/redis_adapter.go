package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

const (
	viewKeyPrefix   = "view:"
	viewGenPrefix   = "view-gen:"
	defaultViewTTL  = 5 * time.Minute
	invalidateBatch = 100
)

type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAdapter caches rendered list pages for ttl. A non-positive ttl falls
// back to five minutes.
func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisAdapter) Generation(ctx context.Context, path string) (int64, error) {
	gen, err := r.client.Get(ctx, viewGenPrefix+path).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read view generation %s: %w", path, err)
	}
	return gen, nil
}

func (r *RedisAdapter) GetInvoicePage(ctx context.Context, key string) (*domain.InvoicePage, bool, error) {
	raw, err := r.client.Get(ctx, viewKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var page domain.InvoicePage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, false, fmt.Errorf("decode view %s: %w", key, err)
	}

	return &page, true, nil
}

func (r *RedisAdapter) SetInvoicePage(ctx context.Context, key string, page domain.InvoicePage) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode view %s: %w", key, err)
	}
	return r.client.Set(ctx, viewKeyPrefix+key, raw, r.ttl).Err()
}

// Invalidate moves path to a new generation, then deletes every cached view
// under it, including its query variants. A reader that started before the
// bump writes under the old generation, which nobody reads again.
func (r *RedisAdapter) Invalidate(ctx context.Context, path string) error {
	if err := r.client.Incr(ctx, viewGenPrefix+path).Err(); err != nil {
		return fmt.Errorf("bump view generation %s: %w", path, err)
	}

	iter := r.client.Scan(ctx, 0, viewKeyPrefix+path+"*", invalidateBatch).Iterator()

	keys := make([]string, 0, invalidateBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == invalidateBatch {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}
