package lockout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "palmers:lockout:"

// Connect builds a client from either a redis:// URL or a bare host:port.
func Connect(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisStore keeps lockout state in a Redis hash per key so that several
// server instances share one counter.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (State, error) {
	data, err := s.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return State{}, err
	}
	return parseState(data), nil
}

func parseState(data map[string]string) State {
	st := State{}
	if raw, ok := data["failed_count"]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			st.FailedCount = n
		}
	}
	if raw, ok := data["locked_until"]; ok && raw != "" {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil && unix > 0 {
			t := time.Unix(unix, 0).UTC()
			st.LockedUntil = &t
		}
	}
	return st
}

func (s *RedisStore) RecordFailure(ctx context.Context, key string, now time.Time, threshold int, window time.Duration) (State, error) {
	redisKey := keyPrefix + key

	count, err := s.client.HIncrBy(ctx, redisKey, "failed_count", 1).Result()
	if err != nil {
		return State{}, err
	}

	st := State{FailedCount: int(count)}
	if int(count) < threshold {
		if err := s.client.Expire(ctx, redisKey, StaleAfter).Err(); err != nil {
			return State{}, fmt.Errorf("expire lockout counter: %w", err)
		}
		return st, nil
	}

	until := now.Add(window).UTC()
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, redisKey, "locked_until", until.Unix())
		p.Expire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return State{}, err
	}
	st.LockedUntil = &until
	return st, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
