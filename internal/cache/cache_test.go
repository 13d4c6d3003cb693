package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRatings(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	ratings := NewRatings(client, time.Hour)

	_, ok, err := ratings.Get(ctx, "Warung A")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ratings.Set(ctx, "Warung A", 4.3, 4))

	avg, ok, err := ratings.Get(ctx, "Warung A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 4.3, avg, 0.001)
	assert.Equal(t, "4", mr.HGet("rating:Warung A", "count"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = ratings.Get(ctx, "Warung A")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastViewed(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	lv := NewLastViewed(client)

	got, err := lv.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	at := time.Date(2024, 3, 1, 9, 30, 0, 123, time.UTC)
	require.NoError(t, lv.Mark(ctx, "alice", at))

	got, err = lv.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, at.Equal(got))
}

func TestDenylist(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	deny := NewDenylist(client)

	revoked, err := deny.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, deny.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = deny.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, deny.Revoke(ctx, "jti-expired", 0))
	assert.False(t, mr.Exists("revoked:jti-expired"))

	mr.FastForward(2 * time.Minute)
	revoked, err = deny.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
