package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySyncLock_TryAcquire(t *testing.T) {
	t.Run("grants the lease to the first caller", func(t *testing.T) {
		lock := NewInMemorySyncLock()
		defer lock.Close()

		acquired, err := lock.TryAcquire(context.Background(), "set-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("rejects a second caller while the lease is held", func(t *testing.T) {
		lock := NewInMemorySyncLock()
		defer lock.Close()

		_, err := lock.TryAcquire(context.Background(), "set-1", time.Minute)
		require.NoError(t, err)

		acquired, err := lock.TryAcquire(context.Background(), "set-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("different keys do not contend", func(t *testing.T) {
		lock := NewInMemorySyncLock()
		defer lock.Close()

		first, err := lock.TryAcquire(context.Background(), "set-1", time.Minute)
		require.NoError(t, err)
		second, err := lock.TryAcquire(context.Background(), "set-2", time.Minute)
		require.NoError(t, err)

		assert.True(t, first)
		assert.True(t, second)
		assert.Equal(t, 2, lock.Size())
	})

	t.Run("expired lease can be re-acquired", func(t *testing.T) {
		lock := NewInMemorySyncLock()
		defer lock.Close()

		_, err := lock.TryAcquire(context.Background(), "set-1", time.Millisecond)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		acquired, err := lock.TryAcquire(context.Background(), "set-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})
}

func TestInMemorySyncLock_Release(t *testing.T) {
	t.Run("released lease is immediately available", func(t *testing.T) {
		lock := NewInMemorySyncLock()
		defer lock.Close()

		_, err := lock.TryAcquire(context.Background(), "set-1", time.Minute)
		require.NoError(t, err)

		require.NoError(t, lock.Release(context.Background(), "set-1"))

		acquired, err := lock.TryAcquire(context.Background(), "set-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("releasing an unheld lease is not an error", func(t *testing.T) {
		lock := NewInMemorySyncLock()
		defer lock.Close()

		assert.NoError(t, lock.Release(context.Background(), "never-held"))
	})
}

func TestInMemorySyncLock_Close(t *testing.T) {
	lock := NewInMemorySyncLock()

	// Safe to call multiple times
	assert.NoError(t, lock.Close())
	assert.NoError(t, lock.Close())
}
