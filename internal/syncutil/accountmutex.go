// Package syncutil provides synchronization helpers for per-account pipelines.
package syncutil

import (
	"context"
	"hash/fnv"
	"sync"
)

// AccountMutex provides a fixed-size pool of channel-based mutexes keyed by
// account id, with context cancellation support. The action pipeline holds an
// account's lock for the full evaluate-delay-execute sequence so concurrent
// requests for the same account run one at a time, while a caller whose
// context is cancelled can bail out instead of queueing forever.
type AccountMutex struct {
	shards [256]chanMutex
	once   sync.Once
}

// chanMutex is a mutex implemented via a buffered channel, allowing select{}
// with a context cancellation channel.
type chanMutex struct {
	ch chan struct{}
}

// NewAccountMutex creates a new context-aware per-account mutex pool.
func NewAccountMutex() *AccountMutex {
	m := &AccountMutex{}
	m.init()
	return m
}

func (m *AccountMutex) init() {
	m.once.Do(func() {
		for i := range m.shards {
			m.shards[i].ch = make(chan struct{}, 1)
			m.shards[i].ch <- struct{}{} // Start unlocked.
		}
	})
}

// Lock acquires the mutex for the given account, respecting context
// cancellation. On success, returns an unlock function and nil error. The
// caller MUST call the unlock function when done. On context cancellation,
// returns nil and the context error.
func (m *AccountMutex) Lock(ctx context.Context, accountID string) (func(), error) {
	m.init()
	shard := &m.shards[m.shardIdx(accountID)]

	select {
	case <-shard.ch:
		return func() { shard.ch <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *AccountMutex) shardIdx(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % 256
}
