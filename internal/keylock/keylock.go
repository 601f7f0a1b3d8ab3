// Package keylock provides a registry of per-key logical locks with
// blocking acquisition.
//
// Each held key maps to a one-shot barrier channel. The holder releases
// by closing the channel, which wakes every waiter at once; waiters then
// race to claim a fresh barrier. A barrier is never reused after it has
// been closed.
package keylock

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"sync"
	"time"
)

// ErrWaitTimeout is returned by Acquire when a single wait on a held key
// exceeds the configured timeout.
var ErrWaitTimeout = errors.New("keylock: wait timed out")

const numShards = 64

// Table tracks which keys are currently locked.
// It distributes keys across 64 shards to reduce lock contention.
//
// Invariant: a key is present in a shard map if and only if some caller
// holds the logical lock for it.
type Table[K comparable] struct {
	seed   maphash.Seed
	shards [numShards]shard[K]
}

type shard[K comparable] struct {
	mu   sync.Mutex
	held map[K]chan struct{}
}

// New creates an empty lock table.
func New[K comparable]() *Table[K] {
	t := &Table[K]{
		seed: maphash.MakeSeed(),
	}
	for i := range t.shards {
		t.shards[i].held = make(map[K]chan struct{})
	}
	return t
}

// shard returns the shard for a given key using a fast hash.
func (t *Table[K]) shard(key K) *shard[K] {
	idx := maphash.String(t.seed, fmt.Sprint(key)) % numShards
	return &t.shards[idx]
}

// Acquire claims the lock for key, blocking while another caller holds it.
//
// When the key is free, the caller becomes the holder and Acquire returns
// immediately. When the key is held, the caller waits for the current
// barrier to be closed and then retries the claim; waking from a barrier
// carries no guarantee of winning the next round.
//
// A positive timeout bounds each individual wait. timeout <= 0 waits
// indefinitely. Cancellation of ctx aborts the wait with ctx.Err().
//
// The returned bool reports whether the caller had to wait at least once.
func (t *Table[K]) Acquire(ctx context.Context, key K, timeout time.Duration) (bool, error) {
	sh := t.shard(key)
	waited := false

	for {
		sh.mu.Lock()
		barrier, held := sh.held[key]
		if !held {
			sh.held[key] = make(chan struct{})
			sh.mu.Unlock()
			return waited, nil
		}
		sh.mu.Unlock()

		waited = true

		if timeout > 0 {
			timer := time.NewTimer(timeout)
			select {
			case <-barrier:
				timer.Stop()
			case <-timer.C:
				return waited, ErrWaitTimeout
			case <-ctx.Done():
				timer.Stop()
				return waited, ctx.Err()
			}
		} else {
			select {
			case <-barrier:
			case <-ctx.Done():
				return waited, ctx.Err()
			}
		}
	}
}

// Release drops the lock for key and wakes all waiters.
//
// The entry is removed before the barrier is closed, so woken waiters
// observe a free key and can claim it. Returns false if the key was not
// held; the caller decides whether that is a contract violation.
func (t *Table[K]) Release(key K) bool {
	sh := t.shard(key)

	sh.mu.Lock()
	barrier, held := sh.held[key]
	if held {
		delete(sh.held, key)
	}
	sh.mu.Unlock()

	if !held {
		return false
	}
	close(barrier)
	return true
}

// Held reports whether key is currently locked.
func (t *Table[K]) Held(key K) bool {
	sh := t.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, held := sh.held[key]
	return held
}

// Len returns the number of currently held keys.
func (t *Table[K]) Len() int {
	n := 0
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		n += len(sh.held)
		sh.mu.Unlock()
	}
	return n
}
