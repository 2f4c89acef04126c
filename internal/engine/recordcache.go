package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/eventscout-project/eventscout/internal/core"
)

// RecordCache remembers fingerprints of published records so periodic
// serve-mode runs only republish records that actually changed. The
// fingerprint covers the record's identity and evidence, never its run-
// scoped fields (ID, DetectedAt): a record rediscovered with the same
// sources, confidence, and framework is the same record.
type RecordCache struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	ttl     time.Duration
	maxSize int
}

// NewRecordCache creates a cache. A fingerprint expires TTL after it was
// recorded, so even a record present in every run re-announces once per
// TTL. maxSize caps memory by evicting expired entries first.
func NewRecordCache(ttl time.Duration, maxSize int) *RecordCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxSize <= 0 {
		maxSize = 100000
	}
	return &RecordCache{
		seen:    make(map[string]time.Time, maxSize/2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Seen returns true if an identical record was published within the TTL
// window. If not, it records the fingerprint so the next identical record
// is suppressed.
func (c *RecordCache) Seen(rec *core.EventRecord) bool {
	fp := c.fingerprint(rec)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if seenAt, ok := c.seen[fp]; ok {
		if now.Sub(seenAt) < c.ttl {
			return true
		}
	}

	c.seen[fp] = now
	if len(c.seen) > c.maxSize {
		c.evictLocked(now)
	}

	return false
}

// fingerprint hashes the fields that define the record's content. Any
// change in evidence or scoring republishes.
func (c *RecordCache) fingerprint(rec *core.EventRecord) string {
	h := sha256.New()
	h.Write([]byte(rec.ServiceName))
	h.Write([]byte{0})
	h.Write([]byte(rec.ChannelName))
	h.Write([]byte{0})
	h.Write([]byte(rec.Broker))
	h.Write([]byte{0})
	h.Write([]byte(rec.Framework))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(rec.Confidence, 'f', -1, 64)))
	h.Write([]byte{0})
	for _, loc := range rec.Sources {
		h.Write([]byte(loc.String()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// evictLocked removes expired entries, then halves the cache if it is
// still over capacity.
func (c *RecordCache) evictLocked(now time.Time) {
	for k, t := range c.seen {
		if now.Sub(t) >= c.ttl {
			delete(c.seen, k)
		}
	}
	if len(c.seen) > c.maxSize {
		count := 0
		target := len(c.seen) / 2
		for k := range c.seen {
			delete(c.seen, k)
			count++
			if count >= target {
				break
			}
		}
	}
}

// StartCleanup runs a background goroutine that periodically evicts
// expired fingerprints. Call the returned function to stop it.
func (c *RecordCache) StartCleanup(interval time.Duration) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.mu.Lock()
				now := time.Now()
				for k, t := range c.seen {
					if now.Sub(t) >= c.ttl {
						delete(c.seen, k)
					}
				}
				c.mu.Unlock()
			}
		}
	}()
	return func() { close(done) }
}

// Size returns the current number of fingerprints in the cache.
func (c *RecordCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
