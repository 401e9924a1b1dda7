package storage

import (
	"context"
	"fmt"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// Backend is a storage backend that also keeps command history.
type Backend interface {
	ports.StorageBackend
	ports.CommandHistoryRepository
	Close() error
}

// New builds the backend selected by cfg.Backend.Driver. It returns
// domain.ErrBackendNotConfigured when the credentials are missing.
func New(ctx context.Context, cfg domain.Config, logger ports.Logger, metrics ports.Metrics) (Backend, error) {
	if !cfg.BackendConfigured() {
		return nil, domain.ErrBackendNotConfigured
	}
	switch cfg.BackendDriver() {
	case domain.BackendDriverREST:
		return NewRESTBackend(RESTConfig{
			BaseURL:      cfg.Backend.URL,
			APIKey:       cfg.Backend.APIKey,
			FilesTable:   cfg.FilesTable(),
			HistoryTable: cfg.HistoryTable(),
			Timeout:      cfg.BackendTimeout(),
		}, logger, metrics), nil
	case domain.BackendDriverPostgres:
		dialCtx, cancel := context.WithTimeout(ctx, cfg.BackendTimeout())
		defer cancel()
		backend, err := NewPostgresBackend(dialCtx, cfg.Backend.DSN, cfg.FilesTable(), cfg.HistoryTable(), metrics)
		if err != nil {
			return nil, err
		}
		if err := backend.Migrate(dialCtx); err != nil {
			backend.Close()
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported backend driver %q", cfg.BackendDriver())
	}
}
