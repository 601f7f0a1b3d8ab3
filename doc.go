// Package stampede provides a per-key blocking cache decorator for Go.
//
// BlockingCache wraps any Cache implementation and guarantees that, for
// any given key, at most one caller at a time computes and stores a
// missing value, while all other concurrent requesters for the same key
// block until that value becomes available. This shields slow backing
// stores (databases, APIs, object storage) from redundant work when many
// callers miss on the same key at once.
//
// # Quick Start
//
//	ctx := context.Background()
//	cache := stampede.NewBlockingCache(
//	    stampede.NewMemoryCache[string, string]("sessions"),
//	    stampede.WithTimeout(5*time.Second),
//	)
//
//	value, ok, err := cache.Get(ctx, "user:42")
//	if err != nil {
//	    return err
//	}
//	if !ok {
//	    // This caller holds the lock for "user:42" until Put or Remove.
//	    value, err = loadFromDatabase(ctx, "user:42")
//	    if err != nil {
//	        cache.Remove(ctx, "user:42") // release without storing
//	        return err
//	    }
//	    if err := cache.Put(ctx, "user:42", value); err != nil { // store and release
//	        return err
//	    }
//	}
//
// GetOrLoad packages the same protocol so the pairing cannot be done wrong:
//
//	value, err := cache.GetOrLoad(ctx, "user:42", loadFromDatabase)
//
// # Blocking Semantics
//
//   - Get on a hit releases the key immediately.
//   - Get on a miss returns (zero, false, nil) and KEEPS the key locked;
//     the caller must follow up with Put or Remove.
//   - Put stores the value and releases the key on every exit path.
//   - Remove releases the key WITHOUT deleting from the wrapped cache;
//     it abandons a population attempt, it is not a deletion.
//   - Releasing a key that is not held panics with *ErrUnheldRelease.
//
// Waiters bounded by WithTimeout receive *ErrLockTimeout; canceled
// waiters receive *ErrAcquireCanceled. Both are recoverable and leave no
// lock held.
//
// # Deadlock Caveat
//
// The lock is per key, not per goroutine: a goroutine that misses twice
// on the same key without Put/Remove in between blocks on itself, and
// goroutines touching multiple keys in inconsistent order can deadlock
// each other. Configure a timeout when callers cannot be trusted to
// follow the protocol strictly.
//
// # Delegates and Decorators
//
//   - MemoryCache: unbounded in-memory map.
//   - LRUCache: fixed-capacity in-memory cache with LRU eviction.
//   - CompressedCache: compresses values (LZ4/ZSTD) before delegating.
//   - s3.Cache, minio.Cache, dynamo.Cache: remote object and table
//     backed caches in their own subpackages.
//
// Decorators compose: a BlockingCache can wrap a CompressedCache over an
// s3.Cache, and so on.
package stampede
