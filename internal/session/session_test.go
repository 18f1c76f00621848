package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_VersioningAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &Context{ID: "s1", LastMessage: "hola"}, 30*time.Minute))
	assert.ErrorIs(t, s.Create(ctx, &Context{ID: "s1"}, time.Minute), ErrVersionConflict)

	a, _ := s.Get(ctx, "s1")
	b, _ := s.Get(ctx, "s1")
	require.Equal(t, int64(1), a.Version)

	a.LastMessage = "primero"
	require.NoError(t, s.Update(ctx, a, 30*time.Minute))
	assert.Equal(t, int64(2), a.Version)

	b.LastMessage = "segundo"
	assert.ErrorIs(t, s.Update(ctx, b, 30*time.Minute), ErrVersionConflict)

	now = now.Add(29 * time.Minute)
	got, _ := s.Get(ctx, "s1")
	require.NotNil(t, got)
	assert.Equal(t, "primero", got.LastMessage)

	now = now.Add(time.Minute)
	got, _ = s.Get(ctx, "s1")
	assert.Nil(t, got)
	assert.ErrorIs(t, s.Update(ctx, a, time.Minute), ErrNotFound)
}

func TestRecord_CreatesThenMerges(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, Record(ctx, s, "s1", "hola", "¡Hola!", "default", time.Hour, now))
	now = now.Add(time.Minute)
	require.NoError(t, Record(ctx, s, "s1", "mi pedido", "Está en camino", "order", time.Hour, now))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "mi pedido", got.LastMessage)
	assert.Equal(t, "Está en camino", got.LastResponse)
	assert.Equal(t, "order", got.Strategy)
	assert.Equal(t, 2, got.Messages)
	assert.Equal(t, int64(2), got.Version)
	assert.True(t, got.UpdatedAt.Equal(now))
}

type conflictingStore struct {
	*MemoryStore
	conflicts int
}

func (c *conflictingStore) Update(ctx context.Context, sc *Context, ttl time.Duration) error {
	if c.conflicts > 0 {
		c.conflicts--
		return ErrVersionConflict
	}
	return c.MemoryStore.Update(ctx, sc, ttl)
}

func TestRecord_RetriesConflicts(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore(nil)
	require.NoError(t, base.Create(ctx, &Context{ID: "s1"}, 0))

	s := &conflictingStore{MemoryStore: base, conflicts: 2}
	require.NoError(t, Record(ctx, s, "s1", "m", "r", "default", 0, time.Now()))

	s.conflicts = maxAttempts
	assert.ErrorIs(t, Record(ctx, s, "s1", "m", "r", "default", 0, time.Now()), ErrVersionConflict)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr, client
}

func TestRedisStore_Versioning(t *testing.T) {
	s, _, client := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &Context{ID: "s1", LastMessage: "hola"}, time.Minute))
	assert.ErrorIs(t, s.Create(ctx, &Context{ID: "s1"}, time.Minute), ErrVersionConflict)

	a, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, int64(1), a.Version)
	assert.Equal(t, "hola", a.LastMessage)

	stale := *a
	a.LastMessage = "nuevo"
	require.NoError(t, s.Update(ctx, a, time.Minute))
	assert.Equal(t, int64(2), a.Version)
	assert.ErrorIs(t, s.Update(ctx, &stale, time.Minute), ErrVersionConflict)

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "nuevo", got.LastMessage)
	assert.Equal(t, int64(2), got.Version)

	ttl, err := client.TTL(ctx, key("s1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisStore_MissingAndExpired(t *testing.T) {
	s, mr, _ := newRedisStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, s.Update(ctx, &Context{ID: "nope", Version: 1}, time.Minute), ErrNotFound)

	require.NoError(t, s.Create(ctx, &Context{ID: "s2"}, time.Minute))
	mr.FastForward(2 * time.Minute)
	got, err = s.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Create(ctx, &Context{ID: "s3"}, time.Minute))
	require.NoError(t, s.Delete(ctx, "s3"))
	assert.False(t, mr.Exists(key("s3")))
}

func TestRecord_OnRedis(t *testing.T) {
	s, _, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, Record(ctx, s, "s1", "hola", "¡Hola!", "default", time.Minute, now))
	require.NoError(t, Record(ctx, s, "s1", "pedido", "Tu pedido", "order", time.Minute, now.Add(time.Second)))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Messages)
	assert.Equal(t, "order", got.Strategy)
	assert.Equal(t, "pedido", got.LastMessage)
}
