package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orghub/orghub/pkg/authz"
)

// stubAccessReader counts loads and serves a fixed snapshot per user.
type stubAccessReader struct {
	calls     int
	snapshots map[uuid.UUID]*authz.UserWithAccess
}

func (r *stubAccessReader) GetUserWithAccess(ctx context.Context, userID uuid.UUID) (*authz.UserWithAccess, error) {
	r.calls++
	if access, ok := r.snapshots[userID]; ok {
		return access, nil
	}
	return nil, ErrUserNotFound
}

func newStubReader(userID uuid.UUID) *stubAccessReader {
	return &stubAccessReader{
		snapshots: map[uuid.UUID]*authz.UserWithAccess{
			userID: {
				ID:       userID,
				Username: "alice",
				GroupMemberships: []authz.GroupMembership{
					{GroupID: "g1", GroupName: "alpha", Role: authz.RoleOwner},
				},
			},
		},
	}
}

func TestAccessCacheL1Hit(t *testing.T) {
	userID := uuid.New()
	reader := newStubReader(userID)

	cache, err := NewAccessCache(reader, 8, nil, time.Minute, nil)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := cache.GetUserWithAccess(ctx, userID)
	require.NoError(t, err)
	second, err := cache.GetUserWithAccess(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 1, reader.calls)
	assert.Equal(t, first, second)
}

func TestAccessCacheTTLExpiry(t *testing.T) {
	userID := uuid.New()
	reader := newStubReader(userID)

	cache, err := NewAccessCache(reader, 8, nil, 10*time.Millisecond, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cache.GetUserWithAccess(ctx, userID)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = cache.GetUserWithAccess(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
}

func TestAccessCacheInvalidate(t *testing.T) {
	userID := uuid.New()
	reader := newStubReader(userID)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cache, err := NewAccessCache(reader, 8, rdb, time.Minute, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cache.GetUserWithAccess(ctx, userID)
	require.NoError(t, err)

	cache.Invalidate(ctx, userID)

	_, err = cache.GetUserWithAccess(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
}

func TestAccessCacheL2SharedAcrossInstances(t *testing.T) {
	userID := uuid.New()
	reader := newStubReader(userID)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()

	first, err := NewAccessCache(reader, 8, rdb, time.Minute, nil)
	require.NoError(t, err)
	_, err = first.GetUserWithAccess(ctx, userID)
	require.NoError(t, err)

	// a second instance with a cold L1 should hit the shared L2
	second, err := NewAccessCache(reader, 8, rdb, time.Minute, nil)
	require.NoError(t, err)
	access, err := second.GetUserWithAccess(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 1, reader.calls)
	assert.Equal(t, "alice", access.Username)
	assert.Equal(t, authz.RoleOwner, access.GroupMemberships[0].Role)
}

func TestAccessCacheRedisDownFallsThrough(t *testing.T) {
	userID := uuid.New()
	reader := newStubReader(userID)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	cache, err := NewAccessCache(reader, 8, rdb, time.Minute, nil)
	require.NoError(t, err)

	access, err := cache.GetUserWithAccess(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, access.ID)
	assert.Equal(t, 1, reader.calls)
}

func TestAccessCachePropagatesReaderError(t *testing.T) {
	reader := &stubAccessReader{snapshots: map[uuid.UUID]*authz.UserWithAccess{}}

	cache, err := NewAccessCache(reader, 8, nil, time.Minute, nil)
	require.NoError(t, err)

	_, err = cache.GetUserWithAccess(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
