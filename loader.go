package stampede

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// LoadFunc computes the value for a key on a cache miss.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// GetOrLoad returns the cached value for key, computing and storing it
// via load on a miss.
//
// It packages the Get/Put/Remove protocol so the lock pairing cannot be
// done wrong: on a miss the value is computed while the key is locked,
// stored with Put on success, and abandoned with Remove when load fails
// or panics. Concurrent callers for the same key block until the first
// one settles, then read the stored value; load runs at most once per
// miss.
func (c *BlockingCache[K, V]) GetOrLoad(ctx context.Context, key K, load LoadFunc[K, V]) (V, error) {
	var zero V

	value, ok, err := c.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok {
		return value, nil
	}

	// Miss: this goroutine holds the lock for key until Put or Remove.
	released := false
	defer func() {
		if !released {
			_, _, _ = c.Remove(ctx, key)
		}
	}()

	loaded, err := load(ctx, key)
	if err != nil {
		return zero, err
	}

	released = true // Put releases on every exit path
	if err := c.Put(ctx, key, loaded); err != nil {
		return zero, err
	}
	return loaded, nil
}

// WarmOptions configures Warm.
type WarmOptions struct {
	// Concurrency caps how many keys are loaded in parallel.
	// Defaults to 16.
	Concurrency int

	// KeysPerSec throttles how many loads are started per second.
	// 0 disables throttling.
	KeysPerSec float64
}

// Warm populates the cache for a set of keys using bounded parallelism.
//
// Each key goes through GetOrLoad, so keys already present are skipped
// cheaply and concurrent warmers for the same key coalesce into a single
// load. The first load failure cancels the remaining work and is
// returned.
//
// Example:
//
//	err := cache.Warm(ctx, keys, loadFromDB, func(o *stampede.WarmOptions) {
//	    o.Concurrency = 8
//	    o.KeysPerSec = 100
//	})
func (c *BlockingCache[K, V]) Warm(ctx context.Context, keys []K, load LoadFunc[K, V], optFns ...func(*WarmOptions)) error {
	opts := WarmOptions{
		Concurrency: 16,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 16
	}

	var limiter *rate.Limiter
	if opts.KeysPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.KeysPerSec), 1)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
			}
			_, err := c.GetOrLoad(ctx, key, load)
			return err
		})
	}

	return g.Wait()
}
