package store

import (
	"context"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const (
	redisKeyPrefix = "pokerrooms:room:"
	redisIndexKey  = "pokerrooms:rooms"
)

// redisClient is the subset of *redis.Client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Close() error
}

// RedisStore keeps each snapshot under pokerrooms:room:<code> and tracks
// the codes in the pokerrooms:rooms set.
type RedisStore struct {
	client redisClient
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client}
}

func roomKey(code string) string {
	return redisKeyPrefix + code
}

func (r *RedisStore) Load(ctx context.Context, code string) ([]byte, error) {
	data, err := r.client.Get(ctx, roomKey(code)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "load room %s", code)
	}
	return data, nil
}

func (r *RedisStore) Save(ctx context.Context, code string, data []byte) error {
	if err := r.client.Set(ctx, roomKey(code), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "save room %s", code)
	}
	if err := r.client.SAdd(ctx, redisIndexKey, code).Err(); err != nil {
		return errors.Wrapf(err, "index room %s", code)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, roomKey(code)).Err(); err != nil {
		return errors.Wrapf(err, "remove room %s", code)
	}
	if err := r.client.SRem(ctx, redisIndexKey, code).Err(); err != nil {
		return errors.Wrapf(err, "unindex room %s", code)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	codes, err := r.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list rooms")
	}
	sort.Strings(codes)
	return codes, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
