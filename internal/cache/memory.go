package cache

import (
	"sync"
	"time"
)

// memoryTier is the fast in-process tier: a key -> entry map with access
// order tracking for LRU eviction, plus hit/miss bookkeeping. All methods
// are safe for concurrent use.
type memoryTier struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	order      []string // access order, oldest first
	buckets    map[uint32][]string
	maxEntries int
	hits       uint64
	misses     uint64
}

func newMemoryTier(maxEntries int) *memoryTier {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &memoryTier{
		entries:    make(map[string]*Entry),
		buckets:    make(map[uint32][]string),
		maxEntries: maxEntries,
	}
}

// get returns the entry for key, updating access order and hit/miss counts.
func (m *memoryTier) get(key string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false
	}
	m.hits++
	m.moveToEnd(key)
	return entry, true
}

// peek returns the entry without touching counters or access order. Used
// when the caller has already decided the lookup outcome (validation
// failures count as misses at the caller).
func (m *memoryTier) peek(key string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	return entry, ok
}

// put inserts or overwrites an entry, evicting the least recently used
// entry when at capacity. Last writer wins.
func (m *memoryTier) put(entry *Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[entry.Key]; exists {
		m.removeBucketRef(m.entries[entry.Key])
		m.entries[entry.Key] = entry
		m.addBucketRef(entry)
		m.moveToEnd(entry.Key)
		return
	}

	if len(m.entries) >= m.maxEntries {
		m.evictOldest()
	}

	m.entries[entry.Key] = entry
	m.addBucketRef(entry)
	m.order = append(m.order, entry.Key)
}

// countMiss records a miss that was decided outside get (validation
// mismatch, disk-tier miss).
func (m *memoryTier) countMiss() {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}

func (m *memoryTier) countHit() {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
}

// similarKeys returns the keys whose semantic-fingerprint quick-hash
// bucket matches, for the similarity lookup prefilter.
func (m *memoryTier) similarKeys(bucket uint32) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := m.buckets[bucket]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// pruneExpired drops entries older than maxAge and returns how many were
// removed.
func (m *memoryTier) pruneExpired(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for key, entry := range m.entries {
		if entry.CreatedAt.Before(cutoff) {
			m.deleteLocked(key)
			removed++
		}
	}
	return removed
}

func (m *memoryTier) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*Entry)
	m.buckets = make(map[uint32][]string)
	m.order = m.order[:0]
}

func (m *memoryTier) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *memoryTier) counters() (hits, misses uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}

// deleteLocked removes an entry. Caller must hold the lock.
func (m *memoryTier) deleteLocked(key string) {
	if entry, ok := m.entries[key]; ok {
		m.removeBucketRef(entry)
	}
	delete(m.entries, key)
	m.removeFromOrder(key)
}

// evictOldest removes the least recently used entry. Caller must hold the lock.
func (m *memoryTier) evictOldest() {
	if len(m.order) == 0 {
		return
	}
	m.deleteLocked(m.order[0])
}

// moveToEnd marks a key most recently used. Caller must hold the lock.
func (m *memoryTier) moveToEnd(key string) {
	m.removeFromOrder(key)
	m.order = append(m.order, key)
}

// removeFromOrder removes a key from the order slice. Caller must hold the lock.
func (m *memoryTier) removeFromOrder(key string) {
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

func (m *memoryTier) addBucketRef(entry *Entry) {
	bucket := entry.quickBucket()
	m.buckets[bucket] = append(m.buckets[bucket], entry.Key)
}

func (m *memoryTier) removeBucketRef(entry *Entry) {
	bucket := entry.quickBucket()
	keys := m.buckets[bucket]
	for i, k := range keys {
		if k == entry.Key {
			m.buckets[bucket] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(m.buckets[bucket]) == 0 {
		delete(m.buckets, bucket)
	}
}
