package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/filesystem"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// listing is the on-disk form of one cached directory listing.
type listing struct {
	ParentPath string                `json:"parent_path"`
	Entries    []domain.StorageEntry `json:"entries"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ListingCache stores storage backend listings as JSON files keyed by parent path.
type ListingCache struct {
	dir        string
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

var _ ports.ListingCache = (*ListingCache)(nil)

// NewListingCache returns a cache rooted under ~/.cmdcenter/cache/listings.
func NewListingCache(ttl time.Duration, maxEntries int) *ListingCache {
	return NewListingCacheAt(filepath.Join(filesystem.AppDir(), "cache", "listings"), ttl, maxEntries)
}

// NewListingCacheAt returns a cache rooted at dir.
func NewListingCacheAt(dir string, ttl time.Duration, maxEntries int) *ListingCache {
	return &ListingCache{
		dir:        dir,
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get retrieves the cached listing for parentPath.
func (c *ListingCache) Get(parentPath string) ([]domain.StorageEntry, bool, error) {
	path := c.pathFor(parentPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached listing: %w", err)
	}
	var entry listing
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached listing: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Entries, true, nil
}

// Set stores the listing for parentPath and evicts the oldest files past capacity.
func (c *ListingCache) Set(parentPath string, entries []domain.StorageEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(listing{ParentPath: parentPath, Entries: entries, CreatedAt: c.now()})
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.pathFor(parentPath), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cached listing: %w", err)
	}
	return c.evictIfNeeded()
}

// Invalidate drops the listing for parentPath.
func (c *ListingCache) Invalidate(parentPath string) error {
	err := os.Remove(c.pathFor(parentPath))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Dir exposes the cache directory path.
func (c *ListingCache) Dir() string {
	return c.dir
}

// Clear removes all cached listings.
func (c *ListingCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Len counts cached listings (best-effort).
func (c *ListingCache) Len() int {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	return len(files)
}

func (c *ListingCache) pathFor(parentPath string) string {
	sum := sha256.Sum256([]byte(parentPath))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8])+".json")
}

func (c *ListingCache) evictIfNeeded() error {
	if c.maxEntries <= 0 {
		return nil
	}
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(files) <= c.maxEntries {
		return nil
	}
	type fileInfo struct {
		name string
		mod  time.Time
	}
	var infos []fileInfo
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{name: f.Name(), mod: info.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].mod.Before(infos[j].mod) })
	for len(infos) > c.maxEntries {
		_ = os.Remove(filepath.Join(c.dir, infos[0].name))
		infos = infos[1:]
	}
	return nil
}
