package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

var (
	mem   *expirable.LRU[string, memoryEntry]
	memMu sync.RWMutex
)

// UseMemoryStore installs the in-process store used when redis is not configured.
// ttl bounds every entry; shorter per-key expirations are honoured on read.
func UseMemoryStore(size int, ttl time.Duration) {
	if size <= 0 {
		size = MemoryStoreSize()
	}
	memMu.Lock()
	mem = expirable.NewLRU[string, memoryEntry](size, nil, ttl)
	memMu.Unlock()
}

// Env: MEMORY_STORE_SIZE (default 1024 entries)
func MemoryStoreSize() int {
	size := 1024
	if v := strings.TrimSpace(os.Getenv("MEMORY_STORE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	return size
}

func memoryStoreReady() bool {
	memMu.RLock()
	defer memMu.RUnlock()
	return mem != nil
}

func memoryGet(key string) ([]byte, bool, error) {
	memMu.RLock()
	store := mem
	memMu.RUnlock()
	if store == nil {
		return nil, false, nil
	}
	e, ok := store.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		store.Remove(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

func memorySet(key string, data []byte, exp time.Duration) error {
	memMu.RLock()
	store := mem
	memMu.RUnlock()
	if store == nil {
		return nil
	}
	e := memoryEntry{data: append([]byte(nil), data...)}
	if exp > 0 {
		e.expiresAt = time.Now().Add(exp)
	}
	store.Add(key, e)
	return nil
}

func memoryRemove(keys ...string) {
	memMu.RLock()
	store := mem
	memMu.RUnlock()
	if store == nil {
		return
	}
	for _, k := range keys {
		store.Remove(k)
	}
}
