// Package explorer browses and edits the storage backend's file listing.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// Listing is a directory listing and where it came from.
type Listing struct {
	ParentPath string
	Entries    []domain.StorageEntry
	// Cached is true when the backend was unreachable and the listing was
	// served from the local cache.
	Cached bool
}

// Service lists, creates and deletes storage entries.
type Service struct {
	Backend ports.StorageBackend
	Cache   ports.ListingCache
	Logger  ports.Logger
}

// List returns the entries under parentPath, falling back to the cache when
// the backend fails.
func (s *Service) List(ctx context.Context, parentPath string) (Listing, error) {
	if s.Backend == nil {
		return Listing{}, domain.ErrBackendNotConfigured
	}
	parentPath = normalize(parentPath)

	entries, err := s.Backend.FetchEntries(ctx, parentPath)
	if err != nil {
		s.Logger.Warn("backend listing failed", map[string]interface{}{
			"backend": s.Backend.Name(),
			"path":    parentPath,
			"error":   err.Error(),
		})
		if cached, ok := s.cached(parentPath); ok {
			return Listing{ParentPath: parentPath, Entries: cached, Cached: true}, nil
		}
		return Listing{}, fmt.Errorf("failed to list %s: %w", parentPath, err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(parentPath, entries); err != nil {
			s.Logger.Debug("listing cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return Listing{ParentPath: parentPath, Entries: entries}, nil
}

// Create adds a file or directory named name under parentPath.
func (s *Service) Create(ctx context.Context, parentPath, name string, typ domain.EntryType, content string) (domain.StorageEntry, error) {
	if s.Backend == nil {
		return domain.StorageEntry{}, domain.ErrBackendNotConfigured
	}
	if strings.Contains(name, "/") {
		return domain.StorageEntry{}, fmt.Errorf("entry name %q must not contain '/'", name)
	}
	parentPath = normalize(parentPath)
	entry := domain.NewStorageEntry(parentPath, name, typ, content)
	entry.ID = uuid.NewString()
	if typ == domain.EntryDir {
		entry.Content = ""
	}
	if err := entry.Validate(); err != nil {
		return domain.StorageEntry{}, err
	}

	created, err := s.Backend.CreateEntry(ctx, entry)
	if err != nil {
		return domain.StorageEntry{}, fmt.Errorf("failed to create %s: %w", entry.Path, err)
	}
	s.invalidate(parentPath)
	return created, nil
}

// Delete removes the entry with id. parentPath, when known, drops the stale
// cached listing.
func (s *Service) Delete(ctx context.Context, parentPath, id string) error {
	if s.Backend == nil {
		return domain.ErrBackendNotConfigured
	}
	if id == "" {
		return errors.New("entry id is required")
	}
	if err := s.Backend.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	if parentPath != "" {
		s.invalidate(normalize(parentPath))
	}
	return nil
}

func (s *Service) cached(parentPath string) ([]domain.StorageEntry, bool) {
	if s.Cache == nil {
		return nil, false
	}
	entries, ok, err := s.Cache.Get(parentPath)
	if err != nil {
		s.Logger.Debug("listing cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return entries, ok
}

func (s *Service) invalidate(parentPath string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(parentPath); err != nil {
		s.Logger.Debug("listing cache invalidate failed", map[string]interface{}{"error": err.Error()})
	}
}

// normalize maps "", "~" and "~/x" onto HomePath and drops trailing slashes.
func normalize(parentPath string) string {
	return domain.JoinPath(domain.SplitPath(domain.AbsolutePath(parentPath, domain.HomePath)))
}
