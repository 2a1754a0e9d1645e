package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingMarker = "__pending__"
	pendingTTL    = 30 * time.Second
	pollInterval  = 50 * time.Millisecond
)

// RedisStore is a Store backed by Redis, for running more than one
// server instance behind a load balancer. The reservation is a SETNX
// pending marker with a TTL so a crashed holder cannot wedge the key
// forever.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(endpoint, key string) string {
	return fmt.Sprintf("idem:%s:%s", endpoint, key)
}

func (s *RedisStore) LookupOrReserve(ctx context.Context, endpoint, key string) (*Record, bool, error) {
	k := redisKey(endpoint, key)
	for {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
		if err != nil {
			return nil, false, fmt.Errorf("reserving idempotency key: %w", err)
		}
		if ok {
			return nil, true, nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if err == redis.Nil {
			// Holder released or TTL expired between SetNX and Get.
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("reading idempotency key: %w", err)
		}
		if val != pendingMarker {
			var rec Record
			if err := json.Unmarshal([]byte(val), &rec); err != nil {
				return nil, false, fmt.Errorf("decoding idempotency record: %w", err)
			}
			return &rec, false, nil
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

func (s *RedisStore) Complete(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(rec.Endpoint, rec.Key), data, 0).Err(); err != nil {
		return fmt.Errorf("storing idempotency record: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, endpoint, key string) error {
	if err := s.client.Del(ctx, redisKey(endpoint, key)).Err(); err != nil {
		return fmt.Errorf("releasing idempotency key: %w", err)
	}
	return nil
}
