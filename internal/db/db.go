package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	HashStore
	SetStore
	KVStore
	ListStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SetUpdate describes membership mutations across multiple set keys that
// must apply as one atomic unit (MULTI/EXEC).
type SetUpdate struct {
	Add    map[string][]string
	Remove map[string][]string
}

// SetStore provides set-membership operations. SAdd reports how many
// members were newly added, which callers use for at-most-once semantics.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SRem(ctx context.Context, key string, members ...string) error
	SCard(ctx context.Context, key string) (int, error)
	SMIsMember(ctx context.Context, key string, members ...string) ([]bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	ApplySetUpdate(ctx context.Context, update SetUpdate) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ListStore provides list operations (newest-first event feeds).
type ListStore interface {
	LPush(ctx context.Context, key string, values ...[]byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	LLen(ctx context.Context, key string) (int64, error)
}
