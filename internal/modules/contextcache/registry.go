package contextcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type MemoryRegistry struct {
	mu      sync.RWMutex
	handles map[string]CacheHandle
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{handles: map[string]CacheHandle{}}
}

func (r *MemoryRegistry) Put(ctx context.Context, h CacheHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.HandleID] = h
	return nil
}

func (r *MemoryRegistry) Get(ctx context.Context, id string) (CacheHandle, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok, nil
}

func (r *MemoryRegistry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
	return nil
}

// RedisRegistry stores handles as JSON with a Redis TTL matching expires_at, so
// entries vanish on their own once the remote cache would have expired.
type RedisRegistry struct {
	rdb    goredis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisRegistry(rdb goredis.UniversalClient, prefix string) *RedisRegistry {
	if strings.TrimSpace(prefix) == "" {
		prefix = "curriculum:cache:"
	}
	return &RedisRegistry{rdb: rdb, prefix: prefix, now: time.Now}
}

// DialRedis connects and pings, closing the client if the ping fails.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *RedisRegistry) key(id string) string { return r.prefix + id }

func (r *RedisRegistry) Put(ctx context.Context, h CacheHandle) error {
	ttl := h.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, h.HandleID)
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal cache handle: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key(h.HandleID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", h.HandleID, err)
	}
	return nil
}

func (r *RedisRegistry) Get(ctx context.Context, id string) (CacheHandle, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return CacheHandle{}, false, nil
	}
	if err != nil {
		return CacheHandle{}, false, fmt.Errorf("redis get %s: %w", id, err)
	}
	var h CacheHandle
	if err := json.Unmarshal(raw, &h); err != nil {
		return CacheHandle{}, false, fmt.Errorf("decode cache handle %s: %w", id, err)
	}
	return h, true, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}
