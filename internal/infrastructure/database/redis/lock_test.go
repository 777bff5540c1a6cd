package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
)

func TestMutex_TryLockIsExclusive(t *testing.T) {
	c, _ := newTestClient(t, config.RedisConfig{KeyPrefix: "sentinel"})
	ctx := context.Background()

	first := NewMutex(c, "analysis-sweep", time.Minute, logging.NewNopLogger())
	second := NewMutex(c, "analysis-sweep", time.Minute, logging.NewNopLogger())

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not acquire a held lock")

	require.NoError(t, first.Unlock(ctx))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock must be acquirable after release")
}

func TestMutex_UnlockOnlyReleasesOwnLock(t *testing.T) {
	c, mr := newTestClient(t, config.RedisConfig{})
	ctx := context.Background()

	owner := NewMutex(c, "analysis-sweep", time.Minute, logging.NewNopLogger())
	intruder := NewMutex(c, "analysis-sweep", time.Minute, logging.NewNopLogger())

	ok, err := owner.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// A non-owner release must leave the lock in place.
	require.NoError(t, intruder.Unlock(ctx))
	assert.True(t, mr.Exists(c.Key("lock:analysis-sweep")))
}

func TestMutex_ExtendReportsLostLock(t *testing.T) {
	c, mr := newTestClient(t, config.RedisConfig{})
	ctx := context.Background()

	m := NewMutex(c, "analysis-sweep", 50*time.Millisecond, logging.NewNopLogger())
	ok, err := m.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Let the TTL lapse; the lock is gone and extension must report that.
	mr.FastForward(2 * time.Minute)
	ok, err = m.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
