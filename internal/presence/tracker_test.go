package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis instance and a redis client for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestMarkActiveThenListActive(t *testing.T) {
	_, rdb := setupTestRedis(t)
	tracker := NewTracker(rdb)
	ctx := context.Background()

	require.NoError(t, tracker.MarkActive(ctx, "ABC12345", "alice"))
	require.NoError(t, tracker.MarkActive(ctx, "ABC12345", "bob"))

	active, err := tracker.ListActive(ctx, "ABC12345")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, active)
}

func TestMarkActiveRefreshesLastSeen(t *testing.T) {
	_, rdb := setupTestRedis(t)
	tracker := NewTracker(rdb)
	ctx := context.Background()

	require.NoError(t, tracker.MarkActive(ctx, "ABC12345", "alice"))
	first, err := rdb.HGet(ctx, "presence:ABC12345", "alice").Result()
	require.NoError(t, err)

	// backdate, then refresh
	stale := time.Now().Add(-2 * time.Minute).Unix()
	require.NoError(t, rdb.HSet(ctx, "presence:ABC12345", "alice", stale).Err())
	require.NoError(t, tracker.MarkActive(ctx, "ABC12345", "alice"))

	refreshed, err := rdb.HGet(ctx, "presence:ABC12345", "alice").Result()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, refreshed, first)
}

func TestListActiveFiltersAndPrunesExpired(t *testing.T) {
	_, rdb := setupTestRedis(t)
	tracker := NewTracker(rdb)
	ctx := context.Background()

	require.NoError(t, tracker.MarkActive(ctx, "ABC12345", "alice"))

	// bob's entry is older than the window but not yet evicted; the
	// reader must still treat him as absent and prune the field
	expired := time.Now().Add(-TTL - time.Second).Unix()
	require.NoError(t, rdb.HSet(ctx, "presence:ABC12345", "bob", expired).Err())

	active, err := tracker.ListActive(ctx, "ABC12345")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, active)

	_, err = rdb.HGet(ctx, "presence:ABC12345", "bob").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestListActiveDropsMalformedEntries(t *testing.T) {
	_, rdb := setupTestRedis(t)
	tracker := NewTracker(rdb)
	ctx := context.Background()

	require.NoError(t, rdb.HSet(ctx, "presence:ABC12345", "mallory", "not-a-timestamp").Err())
	require.NoError(t, tracker.MarkActive(ctx, "ABC12345", "alice"))

	active, err := tracker.ListActive(ctx, "ABC12345")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, active)
}

func TestRemove(t *testing.T) {
	_, rdb := setupTestRedis(t)
	tracker := NewTracker(rdb)
	ctx := context.Background()

	require.NoError(t, tracker.MarkActive(ctx, "ABC12345", "alice"))
	require.NoError(t, tracker.Remove(ctx, "ABC12345", "alice"))

	active, err := tracker.ListActive(ctx, "ABC12345")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRoomsAreIsolated(t *testing.T) {
	_, rdb := setupTestRedis(t)
	tracker := NewTracker(rdb)
	ctx := context.Background()

	require.NoError(t, tracker.MarkActive(ctx, "ROOM1AAA", "alice"))
	require.NoError(t, tracker.MarkActive(ctx, "ROOM2BBB", "bob"))
	require.NoError(t, tracker.Remove(ctx, "ROOM1AAA", "alice"))

	active, err := tracker.ListActive(ctx, "ROOM2BBB")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, active)
}

func TestKeyCarriesBackstopTTL(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	tracker := NewTracker(rdb)
	ctx := context.Background()

	require.NoError(t, tracker.MarkActive(ctx, "ABC12345", "alice"))
	ttl := mr.TTL("presence:ABC12345")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, TTL)
}

func TestUnavailableStoreSurfacesError(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	tracker := NewTracker(rdb)
	ctx := context.Background()

	mr.Close()

	assert.Error(t, tracker.MarkActive(ctx, "ABC12345", "alice"))
	_, err := tracker.ListActive(ctx, "ABC12345")
	assert.Error(t, err)
}
