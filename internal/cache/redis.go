package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

const (
	listPrefix      = "doclist:"
	itemPrefix      = "docitem:"
	blacklistPrefix = "blacklist:"
)

func ListKey(parts string) string { return listPrefix + parts }
func ItemKey(id string) string    { return itemPrefix + id }

type RedisCache struct {
	client  *redis.Client
	ttlList time.Duration
	ttlItem time.Duration
}

func NewRedisCache(client *redis.Client, ttlList, ttlItem int) *RedisCache {
	return &RedisCache{
		client:  client,
		ttlList: time.Duration(ttlList) * time.Second,
		ttlItem: time.Duration(ttlItem) * time.Second,
	}
}

func (r *RedisCache) get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

func (r *RedisCache) GetDocumentList(ctx context.Context, key string) ([]byte, error) {
	return r.get(ctx, ListKey(key))
}

func (r *RedisCache) SetDocumentList(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, ListKey(key), data, r.ttlList).Err()
}

func (r *RedisCache) GetDocumentItem(ctx context.Context, key string) ([]byte, error) {
	return r.get(ctx, ItemKey(key))
}

func (r *RedisCache) SetDocumentItem(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, ItemKey(key), data, r.ttlItem).Err()
}

// InvalidateDocumentLists удаляет все списки, ключ которых начинается с prefix.
// Пустой prefix сбрасывает все списки.
func (r *RedisCache) InvalidateDocumentLists(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, ListKey(prefix)+"*", 0).Iterator()
	var delErr error
	for iter.Next(ctx) {
		// Продолжаем даже после ошибки удаления, возвращаем первую
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil && delErr == nil {
			delErr = err
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return delErr
}

func (r *RedisCache) InvalidateDocumentItem(ctx context.Context, key string) error {
	return r.client.Del(ctx, ItemKey(key)).Err()
}

func (r *RedisCache) IsTokenBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistPrefix+tokenHash).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisCache) BlacklistToken(ctx context.Context, tokenHash string, exp time.Duration) error {
	return r.client.Set(ctx, blacklistPrefix+tokenHash, 1, exp).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
