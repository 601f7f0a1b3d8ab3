package stampede

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/stampede/internal/keylock"
)

// BlockingCache is a decorator that serializes cache population per key.
//
// On a miss, the calling goroutine keeps a logical lock on the key and is
// expected to compute the value and store it with Put; every other caller
// asking for the same key blocks until then. This guarantees that at most
// one caller at a time computes a missing value, shielding the backing
// store from redundant work ("cache stampedes").
//
// The protocol is strict:
//
//   - Get that returns a hit releases the key before returning.
//   - Get that returns a miss KEEPS the key locked. The caller must follow
//     up with Put (store and release) or Remove (release without storing).
//   - Put releases the key on every exit path, even when the delegate fails.
//   - Remove releases the key and deliberately does NOT delete from the
//     delegate; see Remove.
//   - Releasing a key that is not held panics with *ErrUnheldRelease.
//
// Callers must not Get the same key twice on one goroutine without a Put
// or Remove in between, and must touch multiple keys in a consistent
// order; both mistakes can deadlock, and the decorator does not detect
// them. A construction-time timeout (WithTimeout) converts such stalls
// into recoverable *ErrLockTimeout errors.
//
// The delegate's storage and eviction policy is opaque to the decorator;
// any Cache implementation can be wrapped.
type BlockingCache[K comparable, V any] struct {
	delegate Cache[K, V]
	locks    *keylock.Table[K]
	timeout  time.Duration
	metrics  MetricsCollector
	logger   *Logger
}

// NewBlockingCache wraps delegate with per-key blocking semantics.
func NewBlockingCache[K comparable, V any](delegate Cache[K, V], optFns ...Option) *BlockingCache[K, V] {
	o := applyOptions(optFns)
	return &BlockingCache[K, V]{
		delegate: delegate,
		locks:    keylock.New[K](),
		timeout:  o.timeout,
		metrics:  o.metricsCollector,
		logger:   o.logger.WithCacheID(delegate.ID()),
	}
}

// ID returns the identifier of the wrapped cache.
func (c *BlockingCache[K, V]) ID() string {
	return c.delegate.ID()
}

// Size returns the entry count of the wrapped cache. It takes no locks.
func (c *BlockingCache[K, V]) Size(ctx context.Context) (int, error) {
	return c.delegate.Size(ctx)
}

// Timeout returns the configured lock wait bound. Zero means wait forever.
func (c *BlockingCache[K, V]) Timeout() time.Duration {
	return c.timeout
}

// Get returns the value stored for key, blocking while another caller is
// populating it.
//
// On a hit the lock is released immediately and the value returned. On a
// miss (false, nil error) the CALLER now holds the lock for key and must
// call Put or Remove to release it. When the configured timeout expires
// the wait ends with *ErrLockTimeout; cancellation of ctx ends it with
// *ErrAcquireCanceled. In both failure cases no lock is held afterwards.
func (c *BlockingCache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	start := time.Now()

	if err := c.acquireLock(ctx, key); err != nil {
		c.metrics.RecordGet(time.Since(start), false, err)
		return zero, false, err
	}

	value, ok, err := c.delegate.Get(ctx, key)
	if err != nil {
		// Keeping the key locked behind a failed read would strand every
		// waiter, so release before propagating.
		c.releaseLock(key)
		c.metrics.RecordGet(time.Since(start), false, err)
		c.logger.LogGet(ctx, key, false, err)
		return zero, false, err
	}

	if ok {
		c.releaseLock(key)
	}
	// On a miss the lock stays held until the caller's Put or Remove.

	c.metrics.RecordGet(time.Since(start), ok, nil)
	c.logger.LogGet(ctx, key, ok, nil)
	return value, ok, nil
}

// Put stores value in the wrapped cache and releases the lock for key.
//
// The release happens unconditionally, also when the delegate write
// fails, so waiters are never stranded behind a crashed population
// attempt. Calling Put without holding the lock (i.e. without a prior
// Get miss for key) panics with *ErrUnheldRelease.
func (c *BlockingCache[K, V]) Put(ctx context.Context, key K, value V) error {
	defer c.releaseLock(key)

	start := time.Now()
	err := c.delegate.Put(ctx, key, value)
	c.metrics.RecordPut(time.Since(start), err)
	c.logger.LogPut(ctx, key, err)
	return err
}

// Remove releases the lock for key WITHOUT deleting the entry from the
// wrapped cache.
//
// Despite its name, this operation exists only to abandon a population
// attempt after a Get miss: the value could not be computed, so the lock
// is dropped and the next caller gets its own miss. Use the delegate
// directly when actual deletion is needed. The returned value is always
// absent. Calling Remove without holding the lock panics with
// *ErrUnheldRelease.
func (c *BlockingCache[K, V]) Remove(_ context.Context, key K) (V, bool, error) {
	var zero V
	start := time.Now()
	c.releaseLock(key)
	c.metrics.RecordRemove(time.Since(start), nil)
	return zero, false, nil
}

// Clear forwards to the wrapped cache. It does not touch the lock
// registry: in-flight populations keep their locks and complete normally.
func (c *BlockingCache[K, V]) Clear(ctx context.Context) error {
	err := c.delegate.Clear(ctx)
	c.logger.LogClear(ctx, err)
	return err
}

func (c *BlockingCache[K, V]) acquireLock(ctx context.Context, key K) error {
	start := time.Now()
	waited, err := c.locks.Acquire(ctx, key, c.timeout)
	if waited {
		c.metrics.RecordLockWait(time.Since(start), err)
		c.logger.LogLockWait(ctx, key, time.Since(start), err)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, keylock.ErrWaitTimeout) {
		return &ErrLockTimeout{Key: key, Timeout: c.timeout, CacheID: c.delegate.ID()}
	}
	return &ErrAcquireCanceled{Key: key, CacheID: c.delegate.ID(), cause: err}
}

func (c *BlockingCache[K, V]) releaseLock(key K) {
	if !c.locks.Release(key) {
		panic(&ErrUnheldRelease{Key: key, CacheID: c.delegate.ID()})
	}
}
