package web

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/util"
)

// RedisStore keeps one JSON entry per result plus a sorted set of ids
// scored by creation time, so several server replicas can share results.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store whose keys outlive ttl by a factor of two;
// the sweeper is expected to remove them first so the files go too.
func NewRedisStore(cfg *RedisConfig, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "silhouette"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":result:" + id
}

func (s *RedisStore) index() string {
	return s.prefix + ":results"
}

func (s *RedisStore) Put(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(e.ID), data, 2*s.ttl)
		pipe.ZAdd(ctx, s.index(), redis.Z{
			Score:  float64(e.CreatedAt.UnixMilli()),
			Member: e.ID,
		})
		return nil
	})
	return errors.Wrap(err, "redis put result")
}

func (s *RedisStore) Get(ctx context.Context, id string) (Entry, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrResultNotFound
		}
		return Entry{}, errors.Wrap(err, "redis get result")
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		util.Logger.Error("failed to unmarshal result entry", zap.String("id", id), zap.Error(err))
		return Entry{}, err
	}
	return e, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.index(), id)
		return nil
	})
	return errors.Wrap(err, "redis delete result")
}

// Expired reads the index by score. Ids whose entry key has already been
// evicted are returned without a path.
func (s *RedisStore) Expired(ctx context.Context, before time.Time) ([]Entry, error) {
	ids, err := s.client.ZRangeByScoreWithScores(ctx, s.index(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis list expired")
	}

	out := make([]Entry, 0, len(ids))
	for _, z := range ids {
		id, _ := z.Member.(string)
		e, err := s.Get(ctx, id)
		if errors.Is(err, ErrResultNotFound) {
			e = Entry{ID: id, CreatedAt: time.UnixMilli(int64(z.Score))}
		} else if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// NewStore builds the store named by cfg.Results.Store. A redis store that
// cannot be reached is replaced by a memory store.
func NewStore(ctx context.Context, cfg *Config) Store {
	if cfg.Results.Store != "redis" {
		return NewMemoryStore()
	}

	rs := NewRedisStore(&cfg.Redis, cfg.Results.TTL)
	if err := rs.Ping(ctx); err != nil {
		util.Logger.Warn("redis connection failed, using memory store", zap.Error(err))
		_ = rs.Close()
		return NewMemoryStore()
	}
	util.Logger.Info("redis connected successfully", zap.String("addr", cfg.Redis.Addr))
	return rs
}
