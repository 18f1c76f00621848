package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chatbot:session:"

// RedisStore implements Store on Redis using WATCH/MULTI/EXEC for
// optimistic locking.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func key(id string) string { return keyPrefix + id }

// Get returns nil if the session is not found.
func (s *RedisStore) Get(ctx context.Context, id string) (*Context, error) {
	val, err := s.client.Get(ctx, key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var c Context
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create stores c at version 1 only if the key is free.
func (s *RedisStore) Create(ctx context.Context, c *Context, ttl time.Duration) error {
	c.Version = 1
	val, err := json.Marshal(c)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, key(c.ID), val, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrVersionConflict
	}
	return nil
}

// Update verifies the stored version inside a WATCH transaction, bumps it
// and writes c with a fresh TTL.
func (s *RedisStore) Update(ctx context.Context, c *Context, ttl time.Duration) error {
	k := key(c.ID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var stored Context
		if err := json.Unmarshal([]byte(val), &stored); err != nil {
			return err
		}
		if stored.Version != c.Version {
			return ErrVersionConflict
		}

		next := *c
		next.Version++
		newVal, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, newVal, ttl)
			return nil
		})
		if err == nil {
			c.Version = next.Version
		}
		return err
	}, k)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, key(id)).Err()
}
