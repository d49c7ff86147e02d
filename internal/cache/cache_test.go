package cache

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDiff = `diff --git a/test.js b/test.js
+++ b/test.js
-old line
+new line`

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := New(Options{Dir: t.TempDir()})
	t.Cleanup(c.Close)
	return c
}

func TestSetThenGetValidated(t *testing.T) {
	c := newTestCache(t)

	msgs := []string{"feat: add new line"}
	c.SetValidated(testDiff, msgs)

	got := c.GetValidated(testDiff)
	assert.Equal(t, msgs, got)
}

func TestGetValidated_MissOnUnknownDiff(t *testing.T) {
	c := newTestCache(t)
	assert.Nil(t, c.GetValidated(testDiff))
}

func TestGetValidated_RejectsDifferentCodeSameFile(t *testing.T) {
	c := newTestCache(t)
	c.SetValidated(testDiff, []string{"feat: add new line"})

	other := strings.Replace(testDiff, "+new line", "+different line", 1)
	assert.Nil(t, c.GetValidated(other))
}

func TestGetValidated_RejectsCorruptedValidationFingerprint(t *testing.T) {
	dir := t.TempDir()
	c := New(Options{Dir: dir})
	c.SetValidated(testDiff, []string{"feat: add new line"})
	c.Close()

	// Corrupt the stored validation fingerprint while the primary key
	// still matches, then force a disk read with a fresh cache.
	store := newDiskStore(dir)
	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entries[0].SemanticFingerprint = "0000000000000000"
	require.NoError(t, store.Save(entries[0]))

	fresh := New(Options{Dir: dir})
	defer fresh.Close()
	assert.Nil(t, fresh.GetValidated(testDiff))
}

func TestGetValidated_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	c := New(Options{Dir: dir})
	c.SetValidated(testDiff, []string{"feat: add new line"})
	c.Close()

	fresh := New(Options{Dir: dir})
	defer fresh.Close()
	assert.Equal(t, []string{"feat: add new line"}, fresh.GetValidated(testDiff))
}

func TestGetUltraFast(t *testing.T) {
	c := newTestCache(t)

	assert.Nil(t, c.GetUltraFast(testDiff))

	c.SetValidated(testDiff, []string{"fix: thing"})
	assert.Equal(t, []string{"fix: thing"}, c.GetUltraFast(testDiff))
}

func TestGetUltraFast_MemoryTierOnly(t *testing.T) {
	dir := t.TempDir()
	c := New(Options{Dir: dir})
	c.SetValidated(testDiff, []string{"fix: thing"})
	c.Close()

	// A fresh instance has an empty memory tier; the key-only path must
	// not fall back to disk.
	fresh := New(Options{Dir: dir})
	defer fresh.Close()
	assert.Nil(t, fresh.GetUltraFast(testDiff))
}

func TestFindSimilar(t *testing.T) {
	c := newTestCache(t)
	c.SetValidated(testDiff, []string{"feat: add new line"})

	// Same code change in a different file: structural differs, semantic
	// matches, so the similarity path finds it.
	renamed := strings.ReplaceAll(testDiff, "test.js", "moved.js")
	assert.Nil(t, c.GetValidated(renamed))
	assert.NotEmpty(t, c.FindSimilarKey(renamed))
	assert.Equal(t, []string{"feat: add new line"}, c.FindSimilar(renamed))

	// Different code change: no similarity match.
	changed := strings.Replace(testDiff, "+new line", "+other code", 1)
	assert.Equal(t, "", c.FindSimilarKey(changed))
	assert.Nil(t, c.FindSimilar(changed))
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	c := New(Options{Dir: dir})
	defer c.Close()

	c.SetValidated(testDiff, []string{"msg"})
	c.Clear()

	assert.Nil(t, c.GetValidated(testDiff))
	stats := c.Stats()
	assert.Equal(t, 0, stats.MemoryEntries)
	assert.Equal(t, 0, stats.DiskEntries)
}

func TestStats(t *testing.T) {
	c := newTestCache(t)

	c.SetValidated(testDiff, []string{"msg"})
	c.GetValidated(testDiff)             // hit
	c.GetValidated(testDiff + "\n+more") // miss
	c.Close()                            // settle the async write

	stats := c.Stats()
	assert.Equal(t, 1, stats.MemoryEntries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
	assert.Equal(t, 1, stats.DiskEntries)
	assert.Greater(t, stats.DiskBytes, int64(0))
}

func TestCleanup_RemovesExpiredEntries(t *testing.T) {
	dir := t.TempDir()
	c := New(Options{Dir: dir, MaxAgeDays: 7})
	defer c.Close()

	store := newDiskStore(dir)
	require.NoError(t, store.Save(&Entry{
		Key:       strings.Repeat("a", 64),
		Messages:  []string{"old"},
		CreatedAt: time.Now().Add(-8 * 24 * time.Hour),
	}))
	require.NoError(t, store.Save(&Entry{
		Key:       strings.Repeat("b", 64),
		Messages:  []string{"fresh"},
		CreatedAt: time.Now(),
	}))

	removed := c.Cleanup()
	assert.Equal(t, 1, removed)

	count, _, err := store.Usage()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCleanup_EvictsBeyondMaxEntries(t *testing.T) {
	dir := t.TempDir()
	c := New(Options{Dir: dir, MaxEntries: 2})
	defer c.Close()

	store := newDiskStore(dir)
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(&Entry{
			Key:       strings.Repeat(string(rune('a'+i)), 64),
			Messages:  []string{"m"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	removed := c.Cleanup()
	assert.Equal(t, 3, removed)

	// The newest two survive.
	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, e.CreatedAt.After(base.Add(2*time.Minute)) ||
			e.CreatedAt.Equal(base.Add(3*time.Minute)) ||
			e.CreatedAt.Equal(base.Add(4*time.Minute)))
	}
}

func TestMemoryTier_LRUEviction(t *testing.T) {
	c := New(Options{Dir: t.TempDir(), MaxEntries: 2})
	defer c.Close()

	d1 := testDiff
	d2 := testDiff + "\n+second distinct change"
	d3 := testDiff + "\n+third distinct change"

	c.SetValidated(d1, []string{"one"})
	c.SetValidated(d2, []string{"two"})
	c.GetUltraFast(d1) // touch d1 so d2 is LRU
	c.SetValidated(d3, []string{"three"})

	assert.Equal(t, []string{"one"}, c.GetUltraFast(d1))
	assert.Nil(t, c.GetUltraFast(d2))
	assert.Equal(t, []string{"three"}, c.GetUltraFast(d3))
}

func TestTruncateDiff(t *testing.T) {
	short := strings.Repeat("a", 2000)
	assert.Equal(t, short, TruncateDiff(short, 2000))

	long := strings.Repeat("a", 2500)
	got := TruncateDiff(long, 2000)
	assert.Len(t, got, 2003)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, long[:2000]+"...", got)
}

func TestExtractCodeChanges(t *testing.T) {
	changes := ExtractCodeChanges(testDiff)
	assert.Equal(t, []string{"old line", "new line"}, changes)
}

// failingStore fails every persistent-tier call, for failure injection.
type failingStore struct{}

var errStorage = errors.New("storage exploded")

func (failingStore) Load(string) (*Entry, error) { return nil, errStorage }
func (failingStore) Save(*Entry) error           { return errStorage }
func (failingStore) Delete(string) error         { return errStorage }
func (failingStore) List() ([]*Entry, error)     { return nil, errStorage }
func (failingStore) Clear() error                { return errStorage }
func (failingStore) Usage() (int, int64, error)  { return 0, 0, errStorage }

func TestFailureInjection_AllOperationsDegrade(t *testing.T) {
	c := newWithStore(Options{}, failingStore{})
	defer c.Close()

	assert.NotPanics(t, func() {
		c.SetValidated(testDiff, []string{"msg"})
		c.Close()

		// Memory tier still works; disk failures are invisible.
		assert.Equal(t, []string{"msg"}, c.GetValidated(testDiff))
		assert.Equal(t, []string{"msg"}, c.GetUltraFast(testDiff))
		assert.Equal(t, []string{"msg"}, c.FindSimilar(testDiff))

		c.Clear()
		assert.Nil(t, c.GetValidated(testDiff))

		assert.Equal(t, 0, c.Cleanup())

		stats := c.Stats()
		assert.Equal(t, 0, stats.DiskEntries)
		assert.Equal(t, int64(0), stats.DiskBytes)
	})
}

func TestConcurrentAccess(t *testing.T) {
	c := newTestCache(t)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			diff := testDiff + "\n+goroutine change " + strings.Repeat("x", n)
			for j := 0; j < 50; j++ {
				c.SetValidated(diff, []string{"msg"})
				c.GetValidated(diff)
				c.GetUltraFast(diff)
				c.FindSimilar(diff)
				c.Stats()
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestEndToEndScenario(t *testing.T) {
	c := newTestCache(t)

	c.SetValidated(testDiff, []string{"feat: add new line"})
	assert.Equal(t, []string{"feat: add new line"}, c.GetValidated(testDiff))

	different := `diff --git a/test.js b/test.js
+++ b/test.js
-old line
+different line`
	assert.Nil(t, c.GetValidated(different))
}
