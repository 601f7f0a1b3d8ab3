package stampede

import (
	"fmt"
	"time"
)

// ErrLockTimeout indicates that a Get gave up waiting for the per-key lock.
//
// The operation is recoverable: the entry may simply be retried later.
// No lock is held by the caller when this error is returned.
type ErrLockTimeout struct {
	Key     any
	Timeout time.Duration
	CacheID string
}

func (e *ErrLockTimeout) Error() string {
	return fmt.Sprintf("couldn't get a lock in %s for the key %v at the cache %s", e.Timeout, e.Key, e.CacheID)
}

// ErrAcquireCanceled indicates that waiting for the per-key lock was
// aborted by context cancellation or deadline expiry.
//
// The underlying context error can be accessed via errors.Unwrap, so
// errors.Is(err, context.Canceled) and errors.Is(err, context.DeadlineExceeded)
// work as expected. No lock is held by the caller when this error is returned.
type ErrAcquireCanceled struct {
	Key     any
	CacheID string
	cause   error
}

func (e *ErrAcquireCanceled) Error() string {
	return fmt.Sprintf("lock acquisition canceled for the key %v at the cache %s: %v", e.Key, e.CacheID, e.cause)
}

func (e *ErrAcquireCanceled) Unwrap() error { return e.cause }

// ErrUnheldRelease indicates an attempt to release a per-key lock that is
// not held. This should never happen: it means Put or Remove was called
// without a preceding Get miss for the same key.
//
// The violation is fatal and is delivered by panic, never as a returned
// error, so it cannot be confused with the recoverable lock errors above.
type ErrUnheldRelease struct {
	Key     any
	CacheID string
}

func (e *ErrUnheldRelease) Error() string {
	return fmt.Sprintf("detected an attempt at releasing a lock that is not held for the key %v at the cache %s", e.Key, e.CacheID)
}
