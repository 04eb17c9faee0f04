package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_GetMissReturnsEmpty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)

	mock.ExpectGet("idem:abc").RedisNil()

	val, err := store.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Empty(t, val)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetHitAndSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)
	ctx := context.Background()

	mock.ExpectSet("idem:abc", `{"status":201}`, 24*time.Hour).SetVal("OK")
	mock.ExpectGet("idem:abc").SetVal(`{"status":201}`)

	require.NoError(t, store.Set(ctx, "abc", `{"status":201}`, 24*time.Hour))
	val, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, `{"status":201}`, val)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetPropagatesErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)

	mock.ExpectGet("idem:abc").SetErr(errors.New("connection refused"))

	_, err := store.Get(context.Background(), "abc")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, redis.Nil))
}
