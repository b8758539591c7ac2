// Package sync holds locking helpers shared by the stores and the account server.
package sync

import (
	"hash/fnv"
	"sync"
)

const shardCount = 16

// ShardedMutex serializes work per key without one global lock. Two keys
// may share a shard; the same key always does.
type ShardedMutex struct {
	shards [shardCount]sync.Mutex
}

func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

// Lock locks the shard of key and returns its unlock function.
func (m *ShardedMutex) Lock(key string) (unlock func()) {
	mu := &m.shards[shardFor(key)]
	mu.Lock()
	return mu.Unlock
}

func shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
