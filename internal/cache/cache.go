package cache

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	// Prefix namespaces every key so ClearAll cannot touch anything that is
	// not ours, even on a shared storage directory.
	Prefix = "prelude_data_cache_"

	// LeadTTL is how long cached lead lists stay valid.
	LeadTTL = 30 * time.Minute

	// evictMaxAge is the cutoff used when a write hits the storage quota:
	// anything older gets dropped before the one retry.
	evictMaxAge = 24 * time.Hour
)

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

// Cache is a TTL'd JSON cache over a Storage backend. Entries are scoped per
// user via the key suffix; two authenticated users never see each other's
// lists on a shared machine.
type Cache struct {
	storage Storage
	now     func() time.Time
}

func New(storage Storage) *Cache {
	return &Cache{storage: storage, now: time.Now}
}

func (c *Cache) key(key, userEmail string) string {
	k := Prefix + key
	if userEmail != "" {
		k += "_" + userEmail
	}
	return k
}

// Get reads an entry into dest and reports whether it was a valid hit.
// An expired or unparsable entry is deleted on the spot and counts as a miss;
// no read ever returns expired data. Get never returns an error to the caller.
func (c *Cache) Get(key string, ttl time.Duration, userEmail string, dest any) bool {
	full := c.key(key, userEmail)
	raw, err := c.storage.Read(full)
	if err != nil {
		return false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.storage.Delete(full)
		return false
	}
	age := c.now().Sub(time.UnixMilli(env.Timestamp))
	if age > ttl {
		c.storage.Delete(full)
		return false
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		c.storage.Delete(full)
		return false
	}
	return true
}

// Set serializes data under the namespaced key. When the backend reports a
// full quota it evicts entries older than 24h and retries once, then gives
// up silently; caching is best-effort and must never fail a caller.
func (c *Cache) Set(key string, data any, userEmail string) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	env, err := json.Marshal(envelope{Data: raw, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return
	}
	full := c.key(key, userEmail)
	if err := c.storage.Write(full, env); errors.Is(err, ErrQuotaExceeded) {
		c.evictOld()
		c.storage.Write(full, env)
	}
}

func (c *Cache) evictOld() {
	keys, err := c.storage.Keys()
	if err != nil {
		return
	}
	cutoff := c.now().Add(-evictMaxAge)
	for _, k := range keys {
		if !strings.HasPrefix(k, Prefix) {
			continue
		}
		raw, err := c.storage.Read(k)
		if err != nil {
			continue
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.storage.Delete(k)
			continue
		}
		if time.UnixMilli(env.Timestamp).Before(cutoff) {
			c.storage.Delete(k)
		}
	}
}

// Clear removes a single entry for the given user scope.
func (c *Cache) Clear(key, userEmail string) {
	c.storage.Delete(c.key(key, userEmail))
}

// ClearAll removes every entry under our prefix, all users included.
func (c *Cache) ClearAll() {
	keys, err := c.storage.Keys()
	if err != nil {
		return
	}
	for _, k := range keys {
		if strings.HasPrefix(k, Prefix) {
			c.storage.Delete(k)
		}
	}
}
