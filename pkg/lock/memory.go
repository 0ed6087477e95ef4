package lock

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const memoryLockShards = 32

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

type memoryShard struct {
	mu    sync.Mutex
	locks map[string]memoryEntry
}

// MemoryLock is a sharded in-process ResourceLock for single-node deployments
// and tests. Expired entries are overwritten on the next Acquire for the key.
type MemoryLock struct {
	shards [memoryLockShards]*memoryShard
}

func NewMemoryLock() *MemoryLock {
	l := &MemoryLock{}
	for i := range l.shards {
		l.shards[i] = &memoryShard{locks: make(map[string]memoryEntry)}
	}
	return l
}

func (l *MemoryLock) shard(key string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.shards[h.Sum32()%memoryLockShards]
}

func (l *MemoryLock) Acquire(_ context.Context, key string, ttl time.Duration) (string, error) {
	s := l.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if entry, held := s.locks[key]; held && entry.expiresAt.After(now) {
		return "", ErrNotAcquired
	}

	token := uuid.NewString()
	s.locks[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return token, nil
}

func (l *MemoryLock) Release(_ context.Context, key string, token string) error {
	s := l.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, held := s.locks[key]; held && entry.token == token {
		delete(s.locks, key)
	}
	return nil
}
