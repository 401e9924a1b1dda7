package history

import (
	"fmt"
	"path/filepath"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/filesystem"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// Open returns the history repository selected by cfg.History.Driver. backend
// serves the "backend" driver and may be nil otherwise. The "none" driver
// returns a nil repository.
func Open(cfg domain.Config, backend ports.CommandHistoryRepository) (ports.CommandHistoryRepository, error) {
	switch driver := cfg.HistoryDriver(); driver {
	case domain.HistoryDriverSQLite:
		store, err := NewSQLiteStore(storePath(cfg, "history.db"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.HistoryDriverFile:
		return NewFileStore(storePath(cfg, "history.jsonl")), nil
	case domain.HistoryDriverBackend:
		if backend == nil {
			return nil, fmt.Errorf("history driver %q: %w", driver, domain.ErrBackendNotConfigured)
		}
		return backend, nil
	case domain.HistoryDriverNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}
}

func storePath(cfg domain.Config, name string) string {
	if cfg.History.Path != "" {
		return filesystem.ExpandHome(cfg.History.Path)
	}
	return filepath.Join(filesystem.AppDir(), name)
}
