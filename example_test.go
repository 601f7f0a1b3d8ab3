package stampede_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/hupe1980/stampede"
)

// ExampleNewBlockingCache demonstrates the manual miss/Put protocol.
func ExampleNewBlockingCache() {
	ctx := context.Background()
	cache := stampede.NewBlockingCache(stampede.NewMemoryCache[string, string]("users"))

	value, ok, err := cache.Get(ctx, "user:42")
	if err != nil {
		log.Fatal(err)
	}

	if !ok {
		// Miss: this caller now holds the lock for "user:42" and must
		// settle it with Put (or Remove to abandon the attempt).
		value = "Ada Lovelace" // expensive computation goes here
		if err := cache.Put(ctx, "user:42", value); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println(value)
	// Output: Ada Lovelace
}

// ExampleBlockingCache_GetOrLoad demonstrates the packaged load-on-miss helper.
func ExampleBlockingCache_GetOrLoad() {
	ctx := context.Background()
	cache := stampede.NewBlockingCache(stampede.NewMemoryCache[string, string]("users"))

	load := func(ctx context.Context, key string) (string, error) {
		return "loaded:" + key, nil
	}

	first, err := cache.GetOrLoad(ctx, "user:1", load)
	if err != nil {
		log.Fatal(err)
	}

	// Served from the cache; the loader does not run again.
	second, err := cache.GetOrLoad(ctx, "user:1", load)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(first)
	fmt.Println(second)
	// Output:
	// loaded:user:1
	// loaded:user:1
}

// ExampleBlockingCache_Warm demonstrates pre-populating a cache with bounded parallelism.
func ExampleBlockingCache_Warm() {
	ctx := context.Background()
	cache := stampede.NewBlockingCache(stampede.NewLRUCache[int, string]("squares", 128))

	keys := []int{1, 2, 3, 4, 5}
	err := cache.Warm(ctx, keys, func(ctx context.Context, key int) (string, error) {
		return strconv.Itoa(key * key), nil
	})
	if err != nil {
		log.Fatal(err)
	}

	size, err := cache.Size(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Warmed %d keys\n", size)
	// Output: Warmed 5 keys
}

// ExampleWithTimeout demonstrates bounding how long callers wait for a lock.
func ExampleWithTimeout() {
	ctx := context.Background()
	cache := stampede.NewBlockingCache(
		stampede.NewMemoryCache[string, string]("users"),
		stampede.WithTimeout(100*time.Millisecond),
	)

	// The first caller misses and holds the lock for the key...
	_, _, _ = cache.Get(ctx, "user:9")

	// ...so a second caller gives up after the timeout instead of
	// waiting forever.
	_, _, err := cache.Get(ctx, "user:9")

	var lockErr *stampede.ErrLockTimeout
	if errors.As(err, &lockErr) {
		fmt.Println(lockErr)
	}
	// Output: couldn't get a lock in 100ms for the key user:9 at the cache users
}
