package cache

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/cmdcenter/internal/domain"
)

func TestListingCacheRoundTrip(t *testing.T) {
	c := NewListingCacheAt(t.TempDir(), time.Hour, 10)

	if _, ok, err := c.Get("/home/user"); err != nil || ok {
		t.Fatalf("Get() on empty cache = %v, %v", ok, err)
	}

	entries := []domain.StorageEntry{
		domain.NewStorageEntry("/home/user", "documents", domain.EntryDir, ""),
		domain.NewStorageEntry("/home/user", "hello.txt", domain.EntryFile, "Hello, World!"),
	}
	if err := c.Set("/home/user", entries); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, ok, err := c.Get("/home/user")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	if err := c.Invalidate("/home/user"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, ok, _ := c.Get("/home/user"); ok {
		t.Error("listing still cached after Invalidate")
	}
	if err := c.Invalidate("/never/cached"); err != nil {
		t.Errorf("Invalidate() of missing key error: %v", err)
	}
}

func TestListingCacheExpires(t *testing.T) {
	c := NewListingCacheAt(t.TempDir(), time.Minute, 10)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }

	if err := c.Set("/home/user", nil); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	c.now = func() time.Time { return start.Add(2 * time.Minute) }

	if _, ok, err := c.Get("/home/user"); err != nil || ok {
		t.Errorf("expired listing returned: ok=%v err=%v", ok, err)
	}
}

func TestListingCacheEvictsOldest(t *testing.T) {
	dir := t.TempDir()
	c := NewListingCacheAt(dir, 0, 2)

	for i, parent := range []string{"/a", "/b", "/c"} {
		if err := c.Set(parent, nil); err != nil {
			t.Fatalf("Set(%s) error: %v", parent, err)
		}
		old := time.Now().Add(time.Duration(i-10) * time.Minute)
		_ = os.Chtimes(c.pathFor(parent), old, old)
	}

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}
