// Package cache stores previously generated commit messages keyed by a
// content fingerprint of the staged diff. It is two-tiered: a fast
// in-memory LRU map in front of a directory of per-key JSON records that
// survive process restarts.
//
// The cache is a pure optimization layer. Every public operation catches
// its own failures, logs them, and returns the documented fallback value
// (nil, 0, zero stats), so a broken cache only ever looks like a miss to
// the caller.
package cache

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gitquill/gitquill/internal/fingerprint"
	"github.com/gitquill/gitquill/internal/log"
	"github.com/gitquill/gitquill/internal/retry"
)

// Defaults for the persistent tier policies.
const (
	DefaultMaxEntries   = 200
	DefaultMaxAgeDays   = 7
	DefaultWriteTimeout = 3 * time.Second

	// diffPreviewLimit bounds the diff excerpt stored alongside an entry.
	diffPreviewLimit = 2000
)

// Entry is one cached result. The embedded semantic and structural
// fingerprints validate a hit against the querying diff at read time, so
// a stale or collided record is rejected instead of reused.
type Entry struct {
	Key                   string    `json:"key"`
	Messages              []string  `json:"messages"`
	CreatedAt             time.Time `json:"created_at"`
	SemanticFingerprint   string    `json:"semantic_fingerprint"`
	StructuralFingerprint string    `json:"structural_fingerprint"`
	DiffPreview           string    `json:"diff_preview"`
}

// matches reports whether the entry's validation fingerprints agree with
// the querying diff's recomputed ones.
func (e *Entry) matches(semantic, structural string) bool {
	return e.SemanticFingerprint == semantic && e.StructuralFingerprint == structural
}

// quickBucket is the similarity-lookup bucket for this entry.
func (e *Entry) quickBucket() uint32 {
	return fingerprint.QuickHash(e.SemanticFingerprint)
}

// Stats is a point-in-time snapshot of both tiers. Computed fresh on every
// Stats() call, never persisted.
type Stats struct {
	MemoryEntries int     `json:"memory_entries"`
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	HitRate       float64 `json:"hit_rate"`
	DiskEntries   int     `json:"disk_entries"`
	DiskBytes     int64   `json:"disk_bytes"`
	DiskMB        float64 `json:"disk_mb"`
}

// Options configure a Cache. Zero values fall back to defaults.
type Options struct {
	// Dir is the persistent-tier directory.
	Dir string
	// MaxAgeDays is the entry time-to-live for Cleanup.
	MaxAgeDays int
	// MaxEntries caps both tiers; the persistent tier evicts oldest-first
	// beyond it during Cleanup.
	MaxEntries int
	// WriteTimeout bounds each persistent-tier write.
	WriteTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = DefaultMaxAgeDays
	}
	if o.MaxEntries <= 0 {
		o.MaxEntries = DefaultMaxEntries
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	return o
}

// Cache is the two-tier commit message cache. Construct with New and pass
// by reference; there is no package-level instance. Safe for concurrent
// use. Concurrent writes to the same key race benignly: last writer wins.
type Cache struct {
	opts   Options
	memory *memoryTier
	store  entryStore
	wg     sync.WaitGroup
}

// New creates a Cache persisting under opts.Dir.
func New(opts Options) *Cache {
	opts = opts.withDefaults()
	return &Cache{
		opts:   opts,
		memory: newMemoryTier(opts.MaxEntries),
		store:  newDiskStore(opts.Dir),
	}
}

// newWithStore is used by tests to inject a failing persistent tier.
func newWithStore(opts Options, store entryStore) *Cache {
	opts = opts.withDefaults()
	return &Cache{
		opts:   opts,
		memory: newMemoryTier(opts.MaxEntries),
		store:  store,
	}
}

// Close waits for in-flight persistent-tier writes to settle. Call it once
// the cache is no longer needed so best-effort writes are not cut off by
// process exit.
func (c *Cache) Close() {
	c.wg.Wait()
}

// GetUltraFast looks up diffText by exact key in the memory tier only, with
// no fingerprint validation. This is the narrow low-latency path for diffs
// seen moments ago; prefer GetValidated everywhere else.
func (c *Cache) GetUltraFast(diffText string) []string {
	defer c.recover("GetUltraFast")

	key := fingerprint.ExactKey(diffText)
	entry, ok := c.memory.get(key)
	if !ok {
		log.DebugCache("ultra-fast get", key, "miss")
		return nil
	}
	log.DebugCache("ultra-fast get", key, "hit")
	return entry.Messages
}

// GetValidated looks up diffText by exact key in the memory tier, falling
// back to the persistent tier, and only returns the cached messages when
// the stored validation fingerprints match the querying diff's recomputed
// ones. Any internal error is logged and treated as a miss.
func (c *Cache) GetValidated(diffText string) []string {
	defer c.recover("GetValidated")

	key := fingerprint.ExactKey(diffText)

	entry, inMemory := c.memory.peek(key)
	if !inMemory {
		var err error
		entry, err = c.store.Load(key)
		if err != nil {
			log.Debug("cache: persistent read failed for %s: %v", keyPrefix(key), err)
		}
	}
	if entry == nil {
		c.memory.countMiss()
		log.DebugCache("validated get", key, "miss")
		return nil
	}

	semantic := fingerprint.Semantic(diffText)
	structural := fingerprint.Structural(diffText)
	if !entry.matches(semantic, structural) {
		// Stale or collided record; never reuse it.
		c.memory.countMiss()
		log.DebugCache("validated get", key, "fingerprint mismatch, treated as miss")
		return nil
	}

	c.memory.countHit()
	if !inMemory {
		c.memory.put(entry)
	}
	log.DebugCache("validated get", key, "hit")
	return entry.Messages
}

// SetValidated stores messages for diffText. The memory tier is updated
// immediately; the persistent write happens in the background, best-effort,
// retrying only transient I/O errors with bounded backoff. SetValidated is
// a pure overwrite and never surfaces storage failures to the caller.
func (c *Cache) SetValidated(diffText string, messages []string) {
	defer c.recover("SetValidated")

	entry := &Entry{
		Key:                   fingerprint.ExactKey(diffText),
		Messages:              messages,
		CreatedAt:             time.Now(),
		SemanticFingerprint:   fingerprint.Semantic(diffText),
		StructuralFingerprint: fingerprint.Structural(diffText),
		DiffPreview:           TruncateDiff(diffText, diffPreviewLimit),
	}

	c.memory.put(entry)
	log.DebugCache("set", entry.Key, "stored in memory tier")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.persist(entry)
	}()
}

// persist writes one entry to the persistent tier with a timeout and
// bounded retry on transient errors. Failures are logged, never returned.
func (c *Cache) persist(entry *Entry) {
	defer c.recover("persist")

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.WriteTimeout)
	defer cancel()

	cfg := retry.Config{
		Enabled:     true,
		MaxAttempts: 2,
		BackoffBase: 0.1,
		BackoffMax:  0.5,
		Classify:    classifyStorageError,
	}
	err := retry.WithRetry(ctx, cfg, func() error {
		return c.store.Save(entry)
	})
	if err != nil {
		log.Debug("cache: persistent write failed for %s: %v", keyPrefix(entry.Key), err)
		return
	}
	log.DebugCache("set", entry.Key, "persisted")
}

// FindSimilarKey returns the key of a memory-tier entry whose semantic
// fingerprint matches diffText's, or "" when none does. Candidates are
// prefiltered by quick-hash bucket, so this stays cheap even with a full
// memory tier.
func (c *Cache) FindSimilarKey(diffText string) string {
	defer c.recover("FindSimilarKey")

	semantic := fingerprint.Semantic(diffText)
	bucket := fingerprint.QuickHash(semantic)

	for _, key := range c.memory.similarKeys(bucket) {
		entry, ok := c.memory.peek(key)
		if ok && entry.SemanticFingerprint == semantic {
			return key
		}
	}
	return ""
}

// FindSimilar is the lower-confidence secondary lookup: it returns the
// messages of a memory-tier entry with the same semantic fingerprint as
// diffText, ignoring which files were touched. Returns nil on no match or
// any internal error.
func (c *Cache) FindSimilar(diffText string) []string {
	defer c.recover("FindSimilar")

	key := c.FindSimilarKey(diffText)
	if key == "" {
		c.memory.countMiss()
		return nil
	}
	entry, ok := c.memory.peek(key)
	if !ok {
		c.memory.countMiss()
		return nil
	}
	c.memory.countHit()
	log.DebugCache("similar get", key, "hit via semantic fingerprint")
	return entry.Messages
}

// Clear flushes the memory tier and best-effort removes persistent-tier
// records. Persistent removal errors are logged, not returned.
func (c *Cache) Clear() {
	defer c.recover("Clear")

	c.wg.Wait() // don't race in-flight writes with removal
	c.memory.clear()
	if err := c.store.Clear(); err != nil {
		log.Debug("cache: clear of persistent tier failed: %v", err)
	}
}

// Stats returns a snapshot of both tiers. On internal error it returns
// zeroed stats rather than failing.
func (c *Cache) Stats() Stats {
	defer c.recover("Stats")

	var s Stats
	s.MemoryEntries = c.memory.size()
	s.Hits, s.Misses = c.memory.counters()
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}

	count, bytes, err := c.store.Usage()
	if err != nil {
		log.Debug("cache: stats for persistent tier failed: %v", err)
		return s
	}
	s.DiskEntries = count
	s.DiskBytes = bytes
	s.DiskMB = float64(bytes) / (1024 * 1024)
	return s
}

// Cleanup removes expired persistent-tier entries and, when the tier holds
// more than MaxEntries records, the oldest entries beyond that cap. It
// also prunes expired memory-tier entries. Returns the number of
// persistent records removed, 0 on any internal failure.
func (c *Cache) Cleanup() int {
	defer c.recover("Cleanup")

	c.wg.Wait()

	maxAge := time.Duration(c.opts.MaxAgeDays) * 24 * time.Hour
	c.memory.pruneExpired(maxAge)

	entries, err := c.store.List()
	if err != nil {
		log.Debug("cache: cleanup list failed: %v", err)
		return 0
	}

	removed := 0
	var live []*Entry
	for _, entry := range entries {
		if entryAge(entry) > maxAge {
			if err := c.store.Delete(entry.Key); err != nil {
				log.Debug("cache: cleanup delete failed for %s: %v", keyPrefix(entry.Key), err)
				continue
			}
			removed++
			continue
		}
		live = append(live, entry)
	}

	// Oldest-first eviction beyond the entry cap.
	if len(live) > c.opts.MaxEntries {
		sortByCreatedAt(live)
		for _, entry := range live[:len(live)-c.opts.MaxEntries] {
			if err := c.store.Delete(entry.Key); err != nil {
				log.Debug("cache: cleanup evict failed for %s: %v", keyPrefix(entry.Key), err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		log.Debug("cache: cleanup removed %d persistent entries", removed)
	}
	return removed
}

// TruncateDiff bounds a diff excerpt: input at or under limit is returned
// unchanged, anything longer becomes the first limit characters plus "..."
// (total length limit+3).
func TruncateDiff(diffText string, limit int) string {
	if limit <= 0 {
		limit = diffPreviewLimit
	}
	if len(diffText) <= limit {
		return diffText
	}
	return diffText[:limit] + "..."
}

// ExtractCodeChanges exposes the changed-line filter used by the semantic
// fingerprint, for callers that want the same view of a diff.
func ExtractCodeChanges(diffText string) []string {
	return fingerprint.ExtractCodeChanges(diffText)
}

// recover converts a panic inside a public operation into a logged event.
// The cache must never take the tool down.
func (c *Cache) recover(op string) {
	if r := recover(); r != nil {
		log.Debug("cache: %s recovered from panic: %v", op, r)
	}
}

// classifyStorageError maps filesystem errors onto the retry taxonomy:
// busy/interrupted/timeout conditions are transient, permission and path
// errors are permanent.
func classifyStorageError(err error) retry.ErrorType {
	if err == nil {
		return retry.ErrorTypeNonRetryable
	}
	if os.IsPermission(err) || os.IsNotExist(err) {
		return retry.ErrorTypeNonRetryable
	}
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return retry.ErrorTypeRetryable
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "resource temporarily unavailable") ||
		strings.Contains(msg, "timeout") {
		return retry.ErrorTypeRetryable
	}
	return retry.ErrorTypeUnknown
}

// sortByCreatedAt orders entries oldest first.
func sortByCreatedAt(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

func keyPrefix(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}
