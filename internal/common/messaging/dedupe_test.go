// internal/common/messaging/dedupe_test.go
package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestDedupeStore(t *testing.T, ttl time.Duration) (*DedupeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDedupeStore(client, ttl), mr
}

// ==========================
// Core Functionality Tests
// ==========================

func TestDedupeStore_Seen(t *testing.T) {
	store, _ := createTestDedupeStore(t, time.Hour)
	ctx := context.Background()

	seen, err := store.Seen(ctx, "msg-001")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = store.Seen(ctx, "msg-001")
	require.NoError(t, err)
	assert.True(t, seen)

	// A different id is independent.
	seen, err = store.Seen(ctx, "msg-002")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestDedupeStore_Seen_EmptyID(t *testing.T) {
	store, mr := createTestDedupeStore(t, time.Hour)

	seen, err := store.Seen(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, seen)

	// Nothing is recorded for an id-less delivery.
	assert.Empty(t, mr.Keys())
}

func TestDedupeStore_Seen_Expiry(t *testing.T) {
	store, mr := createTestDedupeStore(t, time.Minute)
	ctx := context.Background()

	seen, err := store.Seen(ctx, "msg-001")
	require.NoError(t, err)
	assert.False(t, seen)

	assert.Equal(t, time.Minute, mr.TTL("delivery:msg-001"))

	// After the retention window the same id runs again.
	mr.FastForward(2 * time.Minute)

	seen, err = store.Seen(ctx, "msg-001")
	require.NoError(t, err)
	assert.False(t, seen)
}

// ==========================
// Error Handling Tests
// ==========================

func TestDedupeStore_Seen_BackendDown(t *testing.T) {
	store, mr := createTestDedupeStore(t, time.Hour)
	mr.Close()

	_, err := store.Seen(context.Background(), "msg-001")

	assert.Error(t, err)
}
