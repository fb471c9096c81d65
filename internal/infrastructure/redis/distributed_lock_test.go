package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/config"
)

func newMockLockManager(t *testing.T) (*LockManager, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	m := NewLockManager(client)
	m.newToken = func() string { return "token-1" }
	return m, mock
}

func TestReservationLockKey(t *testing.T) {
	assert.Equal(t, "reservation:user:3:concert:7", ReservationLockKey(3, 7))
}

func TestLockManager_AcquireLock_Mock(t *testing.T) {
	ctx := context.Background()

	t.Run("SetNXが成功すればロックを返す", func(t *testing.T) {
		m, mock := newMockLockManager(t)
		mock.ExpectSetNX("lock:k1", "token-1", 5*time.Second).SetVal(true)

		lock, err := m.AcquireLock(ctx, "k1", 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, lock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("既にロックされていればErrLockNotAcquired", func(t *testing.T) {
		m, mock := newMockLockManager(t)
		mock.ExpectSetNX("lock:k2", "token-1", 5*time.Second).SetVal(false)

		lock, err := m.AcquireLock(ctx, "k2", 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock)
	})

	t.Run("リトライ回数を使い切るとErrLockNotAcquired", func(t *testing.T) {
		m, mock := newMockLockManager(t)
		mock.ExpectSetNX("lock:k3", "token-1", time.Second).SetVal(false)
		mock.ExpectSetNX("lock:k3", "token-1", time.Second).SetVal(false)

		_, err := m.AcquireLockWithRetry(ctx, "k3", time.Second, 2, time.Millisecond)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("リトライ中に取得できる", func(t *testing.T) {
		m, mock := newMockLockManager(t)
		mock.ExpectSetNX("lock:k4", "token-1", time.Second).SetVal(false)
		mock.ExpectSetNX("lock:k4", "token-1", time.Second).SetVal(true)

		lock, err := m.AcquireLockWithRetry(ctx, "k4", time.Second, 3, time.Millisecond)
		require.NoError(t, err)
		assert.NotNil(t, lock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDistributedLock_Release_Mock(t *testing.T) {
	ctx := context.Background()
	m, mock := newMockLockManager(t)
	mock.ExpectSetNX("lock:k5", "token-1", time.Second).SetVal(true)
	lock, err := m.AcquireLock(ctx, "k5", time.Second)
	require.NoError(t, err)

	mock.ExpectEval(releaseScript, []string{"lock:k5"}, "token-1").SetVal(int64(1))
	require.NoError(t, lock.Release(ctx))

	// 他者に奪われた後の解放
	mock.ExpectEval(releaseScript, []string{"lock:k5"}, "token-1").SetVal(int64(0))
	assert.ErrorIs(t, lock.Release(ctx), ErrLockNotOwned)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// 以下は実際のRedisを使うテスト。接続できなければスキップする

func setupTestRedis(t *testing.T) *LockManager {
	t.Helper()
	client, err := NewClient(&config.RedisConfig{Host: "localhost", Port: "6379"})
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return NewLockManager(client)
}

func TestLockManager_AcquireLock(t *testing.T) {
	manager := setupTestRedis(t)
	ctx := context.Background()

	t.Run("同じキーのロックは取得できない", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-2", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLock(ctx, "test-key-2", 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-3", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock1.Release(ctx))

		lock2, err := manager.AcquireLock(ctx, "test-key-3", 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("リトライで取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-4", 500*time.Millisecond)
		require.NoError(t, err)

		go func() {
			time.Sleep(300 * time.Millisecond)
			lock1.Release(ctx)
		}()

		lock2, err := manager.AcquireLockWithRetry(ctx, "test-key-4", 5*time.Second, 5, 100*time.Millisecond)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("解放後は延長できない", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-key-extend-after-release", 1*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		assert.ErrorIs(t, lock.Extend(ctx, 5*time.Second), ErrLockNotOwned)
	})
}
