package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func TestRedisStore_ReserveAndComplete(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	rec, reserved, err := store.LookupOrReserve(ctx, "POST /checkout-sessions", "key-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.True(t, reserved)

	stored := &Record{
		Endpoint:    "POST /checkout-sessions",
		Key:         "key-1",
		Fingerprint: "fp",
		StatusCode:  201,
		Body:        []byte(`{"id":"chk_1"}`),
	}
	require.NoError(t, store.Complete(ctx, stored))

	rec, reserved, err = store.LookupOrReserve(ctx, "POST /checkout-sessions", "key-1")
	require.NoError(t, err)
	assert.False(t, reserved)
	require.NotNil(t, rec)
	assert.Equal(t, 201, rec.StatusCode)
	assert.Equal(t, "fp", rec.Fingerprint)
	assert.JSONEq(t, `{"id":"chk_1"}`, string(rec.Body))
}

func TestRedisStore_SecondCallerWaitsForCompletion(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	_, reserved, err := store.LookupOrReserve(ctx, "ep", "k")
	require.NoError(t, err)
	require.True(t, reserved)

	done := make(chan *Record, 1)
	go func() {
		rec, _, err := store.LookupOrReserve(ctx, "ep", "k")
		require.NoError(t, err)
		done <- rec
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, store.Complete(ctx, &Record{Endpoint: "ep", Key: "k", StatusCode: 200}))

	select {
	case rec := <-done:
		require.NotNil(t, rec)
		assert.Equal(t, 200, rec.StatusCode)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never saw the completed record")
	}
}

func TestRedisStore_ReleaseLetsNextCallerThrough(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	_, reserved, err := store.LookupOrReserve(ctx, "ep", "k")
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, store.Release(ctx, "ep", "k"))

	rec, reserved, err := store.LookupOrReserve(ctx, "ep", "k")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.True(t, reserved)
}
