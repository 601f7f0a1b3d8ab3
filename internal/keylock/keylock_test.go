package keylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AcquireRelease(t *testing.T) {
	tbl := New[string]()
	ctx := context.Background()

	waited, err := tbl.Acquire(ctx, "a", 0)
	require.NoError(t, err)
	assert.False(t, waited, "uncontended acquire should not wait")
	assert.True(t, tbl.Held("a"))
	assert.Equal(t, 1, tbl.Len())

	assert.True(t, tbl.Release("a"))
	assert.False(t, tbl.Held("a"))
	assert.Equal(t, 0, tbl.Len())

	// Releasing again must report the key as not held.
	assert.False(t, tbl.Release("a"))
}

func TestTable_DistinctKeysIndependent(t *testing.T) {
	tbl := New[string]()
	ctx := context.Background()

	_, err := tbl.Acquire(ctx, "a", 0)
	require.NoError(t, err)

	// A second key must not block behind the first.
	waited, err := tbl.Acquire(ctx, "b", 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, waited)

	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Release("a"))
	assert.True(t, tbl.Release("b"))
}

func TestTable_WaitForRelease(t *testing.T) {
	tbl := New[string]()
	ctx := context.Background()

	_, err := tbl.Acquire(ctx, "k", 0)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		waited, err := tbl.Acquire(ctx, "k", 0)
		assert.NoError(t, err)
		assert.True(t, waited, "contended acquire should report waiting")
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while key was held")
	case <-time.After(50 * time.Millisecond):
	}

	require.True(t, tbl.Release("k"))

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by release")
	}

	assert.True(t, tbl.Held("k"), "waiter should now hold the lock")
	assert.True(t, tbl.Release("k"))
}

func TestTable_Timeout(t *testing.T) {
	tbl := New[string]()
	ctx := context.Background()

	_, err := tbl.Acquire(ctx, "k", 0)
	require.NoError(t, err)

	const timeout = 100 * time.Millisecond
	start := time.Now()
	waited, err := tbl.Acquire(ctx, "k", timeout)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrWaitTimeout)
	assert.True(t, waited)
	assert.GreaterOrEqual(t, elapsed, timeout)

	// The holder is unaffected and can still release.
	assert.True(t, tbl.Release("k"))
}

func TestTable_ContextCancel(t *testing.T) {
	tbl := New[string]()

	_, err := tbl.Acquire(context.Background(), "k", 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = tbl.Acquire(ctx, "k", 0)
	require.ErrorIs(t, err, context.Canceled)

	// A canceled waiter leaves no residue behind.
	assert.Equal(t, 1, tbl.Len())
	assert.True(t, tbl.Release("k"))
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_AcquireAfterTimeout(t *testing.T) {
	tbl := New[string]()
	ctx := context.Background()

	_, err := tbl.Acquire(ctx, "k", 0)
	require.NoError(t, err)

	_, err = tbl.Acquire(ctx, "k", 20*time.Millisecond)
	require.ErrorIs(t, err, ErrWaitTimeout)

	// After the holder releases, a fresh acquire succeeds.
	require.True(t, tbl.Release("k"))
	waited, err := tbl.Acquire(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, waited)
	assert.True(t, tbl.Release("k"))
}

func TestTable_MutualExclusion(t *testing.T) {
	tbl := New[int]()
	ctx := context.Background()

	const goroutines = 32
	var inside atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := tbl.Acquire(ctx, 42, 0)
			assert.NoError(t, err)

			// Exactly one goroutine may be between Acquire and Release.
			assert.Equal(t, int64(1), inside.Add(1))
			time.Sleep(time.Millisecond)
			inside.Add(-1)

			assert.True(t, tbl.Release(42))
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_ReleaseWakesAllWaiters(t *testing.T) {
	tbl := New[string]()
	ctx := context.Background()

	_, err := tbl.Acquire(ctx, "k", 0)
	require.NoError(t, err)

	const waiters = 8
	var done sync.WaitGroup
	for i := 0; i < waiters; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			_, err := tbl.Acquire(ctx, "k", 0)
			assert.NoError(t, err)
			assert.True(t, tbl.Release("k"))
		}()
	}

	// Give the waiters time to park on the barrier.
	time.Sleep(50 * time.Millisecond)
	require.True(t, tbl.Release("k"))

	finished := make(chan struct{})
	go func() {
		done.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("not all waiters completed after release")
	}
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_LenAcrossShards(t *testing.T) {
	tbl := New[int]()
	ctx := context.Background()

	const keys = 200
	for i := 0; i < keys; i++ {
		_, err := tbl.Acquire(ctx, i, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, keys, tbl.Len())

	for i := 0; i < keys; i++ {
		require.True(t, tbl.Release(i))
	}
	assert.Equal(t, 0, tbl.Len())
}
