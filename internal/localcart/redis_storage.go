package localcart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStorage stores one guest cart under guest-cart:<guestID>.
// Every save refreshes the TTL so active carts do not expire.
type RedisStorage struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisStorage(client redis.Cmdable, guestID string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		key:    slotKey(guestID),
		ttl:    ttl,
	}
}

func (r *RedisStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisStorage) Save(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func slotKey(guestID string) string {
	return fmt.Sprintf("guest-cart:%s", guestID)
}

// RedisProvider opens Redis-backed guest cart stores by guest ID
type RedisProvider struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisProvider(client redis.Cmdable, ttl time.Duration, log *zap.Logger) *RedisProvider {
	return &RedisProvider{client: client, ttl: ttl, log: log}
}

func (p *RedisProvider) Open(guestID string) *Store {
	return NewStore(NewRedisStorage(p.client, guestID, p.ttl), p.log.With(zap.String("guest_id", guestID)))
}
