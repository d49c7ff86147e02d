package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// entryStore is the persistent tier: one durable record per key, each
// removable on its own. Implementations must not be relied on for
// correctness; every caller treats failures as misses or logged no-ops.
type entryStore interface {
	Load(key string) (*Entry, error)
	Save(entry *Entry) error
	Delete(key string) error
	// List returns all stored entries, unordered.
	List() ([]*Entry, error)
	// Clear removes every record.
	Clear() error
	// Usage returns the record count and total size in bytes.
	Usage() (count int, bytes int64, err error)
}

const entryFileExt = ".json"

// diskStore keeps one JSON file per cache key under dir. Files are
// independent, so a failed or concurrent write can only affect its own
// entry. Cross-process access is last-writer-wins.
type diskStore struct {
	dir string
}

func newDiskStore(dir string) *diskStore {
	return &diskStore{dir: dir}
}

func (s *diskStore) ensureDir() error {
	if s.dir == "" {
		return fmt.Errorf("cache dir not configured")
	}
	return os.MkdirAll(s.dir, 0o755)
}

func (s *diskStore) pathFor(key string) string {
	return filepath.Join(s.dir, key+entryFileExt)
}

func (s *diskStore) Load(key string) (*Entry, error) {
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupted record: remove it so it cannot shadow future writes.
		_ = os.Remove(s.pathFor(key))
		return nil, fmt.Errorf("parse cache entry: %w", err)
	}
	return &entry, nil
}

func (s *diskStore) Save(entry *Entry) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return os.WriteFile(s.pathFor(entry.Key), data, 0o644)
}

func (s *diskStore) Delete(key string) error {
	err := os.Remove(s.pathFor(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *diskStore) List() ([]*Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []*Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryFileExt) {
			continue
		}
		key := strings.TrimSuffix(f.Name(), entryFileExt)
		entry, err := s.Load(key)
		if err != nil || entry == nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *diskStore) Clear() error {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var firstErr error
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryFileExt) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, f.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *diskStore) Usage() (int, int64, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	count := 0
	var total int64
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryFileExt) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		count++
		total += info.Size()
	}
	return count, total, nil
}

// entryAge is a helper for eviction policies.
func entryAge(e *Entry) time.Duration {
	return time.Since(e.CreatedAt)
}
