package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/islamapp/internal/kv"
)

// Store is a kv.Store backed by Redis so user state survives gateway restarts.
type Store struct {
	Rdb *redis.Client
}

var _ kv.Store = (*Store)(nil)

func NewStore(redisAddress string, redisUsername string, redisPassword string) *Store {
	return &Store{Rdb: redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Rdb.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.Rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("[redis] get failed")
		return "", err
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.Rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("[redis] set failed")
		return err
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.Rdb.Del(ctx, key).Err()
}

func (s *Store) Close() error {
	return s.Rdb.Close()
}
