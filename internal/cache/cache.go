// Package cache provides the result cache consumed by the API layer.
// The trust engine itself never touches the cache; callers own the
// get/set decisions so the engine stays pure.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/trust"
)

// Cache stores trust reports keyed by domain hash.
type Cache interface {
	Get(key string) (*trust.Report, bool)
	Set(key string, report *trust.Report, ttl time.Duration)
}

// Key derives the cache key for a domain. Hashing keeps keys
// fixed-length and safe for any backing store.
func Key(domain string) string {
	sum := sha256.Sum256([]byte(domain))
	return "site_check:" + hex.EncodeToString(sum[:])
}

type entry struct {
	report    *trust.Report
	expiresAt time.Time
}

// Memory is an in-process Cache with per-entry TTLs and a background
// janitor that evicts expired entries.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	done    chan struct{}
	once    sync.Once
}

// NewMemory starts a memory cache whose janitor sweeps at the given
// interval. Call Close to stop the janitor.
func NewMemory(sweepInterval time.Duration) *Memory {
	if sweepInterval <= 0 {
		sweepInterval = 10 * time.Minute
	}
	m := &Memory{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go m.janitor(sweepInterval)
	return m
}

func (m *Memory) Get(key string) (*trust.Report, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.report, true
}

func (m *Memory) Set(key string, report *trust.Report, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.entries[key] = entry{report: report, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

// Close stops the janitor goroutine.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for key, e := range m.entries {
				if now.After(e.expiresAt) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
