package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/doeshing/cmdcenter/internal/application/doctor"
	"github.com/doeshing/cmdcenter/internal/application/explorer"
	"github.com/doeshing/cmdcenter/internal/application/interpreter"
	"github.com/doeshing/cmdcenter/internal/application/session"
	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/infrastructure/cache"
	"github.com/doeshing/cmdcenter/internal/infrastructure/config"
	"github.com/doeshing/cmdcenter/internal/infrastructure/history"
	"github.com/doeshing/cmdcenter/internal/infrastructure/metrics"
	"github.com/doeshing/cmdcenter/internal/infrastructure/remote"
	"github.com/doeshing/cmdcenter/internal/infrastructure/security"
	"github.com/doeshing/cmdcenter/internal/infrastructure/storage"
	"github.com/doeshing/cmdcenter/internal/infrastructure/tree"
	"github.com/doeshing/cmdcenter/internal/pkg/filesystem"
	"github.com/doeshing/cmdcenter/internal/pkg/logger"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// LogFileName is where the TUI writes logs when logging.file is unset.
const LogFileName = "cmdcenter.log"

// Container wires up application services with infrastructure adapters.
// The storage backend and history store are opened on first use.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Logger         *logger.ZeroLogger
	Metrics        *metrics.Recorder
	Guardrail      *security.Guardrail
	Factory        *interpreter.Factory

	backendOnce sync.Once
	backend     storage.Backend
	backendErr  error

	historyOnce sync.Once
	history     ports.CommandHistoryRepository
	historyErr  error

	logFile io.Closer
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)
	if !verbose {
		if level, err := logger.ParseLevel(cfg.Logging.Level); err == nil {
			log = logger.New(os.Stderr, level)
		}
	}

	guardrail, err := security.NewGuardrail(cfg.Security.RulesFile)
	if err != nil {
		log.Warn("guardrail rules unreadable, using embedded defaults", map[string]interface{}{"error": err.Error()})
		guardrail, err = security.NewGuardrail("")
		if err != nil {
			return nil, err
		}
	}

	root, err := tree.Load(cfg.Simulator.TreeFile)
	if err != nil {
		log.Warn("tree file unreadable, using demo tree", map[string]interface{}{"error": err.Error()})
		root = domain.DefaultTree()
	}

	recorder := metrics.New()
	factory := &interpreter.Factory{
		Tree:     root,
		Clock:    interpreter.SystemClock{},
		Dialer:   NewChannelDialer(log),
		Security: guardrail,
		Logger:   log,
		Metrics:  recorder,
	}

	return &Container{
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
		Metrics:        recorder,
		Guardrail:      guardrail,
		Factory:        factory,
	}, nil
}

// NewChannelDialer returns a dialer building WebSocket channels from settings.
func NewChannelDialer(log ports.Logger) interpreter.ChannelDialer {
	return func(cfg domain.Config) (ports.RemoteChannel, error) {
		return remote.NewWebSocketChannel(cfg.RemoteURL(), cfg.HandshakeTimeout(), log), nil
	}
}

// Backend opens the configured storage backend once.
func (c *Container) Backend(ctx context.Context) (storage.Backend, error) {
	c.backendOnce.Do(func() {
		c.backend, c.backendErr = storage.New(ctx, c.Config, c.Logger, c.Metrics)
		if c.backendErr != nil && !errors.Is(c.backendErr, domain.ErrBackendNotConfigured) {
			c.Logger.Warn("storage backend unavailable", map[string]interface{}{
				"driver": c.Config.BackendDriver(),
				"error":  c.backendErr.Error(),
			})
		}
	})
	return c.backend, c.backendErr
}

// History opens the configured history store once. A nil repository with a
// nil error means history is disabled.
func (c *Container) History(ctx context.Context) (ports.CommandHistoryRepository, error) {
	c.historyOnce.Do(func() {
		var backend ports.CommandHistoryRepository
		if c.Config.HistoryDriver() == domain.HistoryDriverBackend {
			b, err := c.Backend(ctx)
			if err != nil {
				c.historyErr = fmt.Errorf("history backend: %w", err)
				return
			}
			backend = b
		}
		c.history, c.historyErr = history.Open(c.Config, backend)
	})
	return c.history, c.historyErr
}

// Explorer builds the file explorer over the storage backend and listing cache.
func (c *Container) Explorer(ctx context.Context) (*explorer.Service, error) {
	backend, err := c.Backend(ctx)
	if err != nil {
		return nil, err
	}
	svc := &explorer.Service{Backend: backend, Logger: c.Logger}
	if c.Config.Cache.Enabled {
		svc.Cache = cache.NewListingCache(c.Config.CacheTTL(), c.Config.CacheMaxEntries())
	}
	return svc, nil
}

// Doctor builds the diagnostics service. Unavailable stores are reported by
// the checks rather than returned as errors.
func (c *Container) Doctor(ctx context.Context) *doctor.Service {
	svc := &doctor.Service{
		ConfigProvider:  c.ConfigProvider,
		SecurityService: c.Guardrail,
		Dialer:          c.Factory.Dialer,
	}
	if backend, err := c.Backend(ctx); err == nil {
		svc.Backend = backend
	}
	if repo, err := c.History(ctx); err == nil {
		svc.History = repo
	}
	return svc
}

// NewSession builds a session manager for the loaded configuration and seeds
// its edit history from the history store.
func (c *Container) NewSession(ctx context.Context) (*session.Manager, error) {
	repo, err := c.History(ctx)
	if err != nil {
		c.Logger.Warn("history store unavailable, commands will not be recorded", map[string]interface{}{"error": err.Error()})
	}

	var recorder ports.CommandRecorder
	if repo != nil {
		recorder = repo
	}
	manager, err := session.NewManager(ctx, c.Config, c.Factory, recorder, c.Logger, c.Metrics)
	if manager == nil {
		return nil, err
	}
	if err != nil {
		c.Logger.Warn("session started in local mode", map[string]interface{}{"error": err.Error()})
	}

	if repo != nil {
		records, err := repo.RecentCommands(ctx, c.Config.HistorySeedLimit())
		if err != nil {
			c.Logger.Warn("failed to load recent commands", map[string]interface{}{"error": err.Error()})
		} else {
			manager.Seed(records, c.Config.History.ReplayTranscript)
		}
	}
	return manager, nil
}

// Reload re-reads the configuration file, for SIGHUP handling.
func (c *Container) Reload(ctx context.Context) (domain.Config, error) {
	cfg, err := c.ConfigProvider.Load(ctx)
	if err != nil {
		return c.Config, fmt.Errorf("failed to reload configuration: %w", err)
	}
	c.Config = cfg
	return cfg, nil
}

// LogToFile redirects the logger to logging.file, or ~/.cmdcenter/cmdcenter.log.
func (c *Container) LogToFile() (string, error) {
	path := c.Config.Logging.File
	if path == "" {
		path = filepath.Join(filesystem.AppDir(), LogFileName)
	}
	path = filesystem.ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}
	c.Logger.SetOutput(f)
	c.logFile = f
	return path, nil
}

// ServeMetrics exposes /metrics when metrics.listen is set. It blocks until
// ctx is done.
func (c *Container) ServeMetrics(ctx context.Context) {
	addr := c.Config.Metrics.Listen
	if addr == "" {
		return
	}
	c.Logger.Info("serving metrics", map[string]interface{}{"addr": addr})
	if err := c.Metrics.Serve(ctx, addr); err != nil {
		c.Logger.Error("metrics server stopped", err, map[string]interface{}{"addr": addr})
	}
}

// Close releases the stores and the log file.
func (c *Container) Close() error {
	var errs []error
	if closer, ok := c.history.(io.Closer); ok && c.history != ports.CommandHistoryRepository(c.backend) {
		errs = append(errs, closer.Close())
	}
	if c.backend != nil {
		errs = append(errs, c.backend.Close())
	}
	if c.logFile != nil {
		errs = append(errs, c.logFile.Close())
	}
	return errors.Join(errs...)
}
