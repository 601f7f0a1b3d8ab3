package stampede

import "context"

// Cache is the contract shared by all cache implementations and decorators.
//
// Implementations must be safe for concurrent use. Get, Put, Remove and
// Clear must be linearizable per key: once Put returns, a subsequent Get
// for the same key observes the stored value.
type Cache[K comparable, V any] interface {
	// ID returns the identifier of this cache. Decorators report the
	// identity of the cache they wrap.
	ID() string

	// Size returns the number of entries currently stored. The count is
	// informational and may be stale for remote backends.
	Size(ctx context.Context) (int, error)

	// Get returns the value stored for key. The second return value
	// reports whether the key was present.
	Get(ctx context.Context, key K) (V, bool, error)

	// Put stores value under key, replacing any existing entry.
	Put(ctx context.Context, key K, value V) error

	// Remove deletes the entry for key and returns the removed value if
	// the implementation can report it.
	Remove(ctx context.Context, key K) (V, bool, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
