package domain

import (
	"fmt"
	"strings"
	"time"
)

// Backend driver names.
const (
	BackendDriverREST     = "rest"
	BackendDriverPostgres = "postgres"
)

// History driver names.
const (
	HistoryDriverSQLite  = "sqlite"
	HistoryDriverFile    = "file"
	HistoryDriverBackend = "backend"
	HistoryDriverNone    = "none"
)

// IsRemote reports whether commands should be forwarded to the terminal server.
func (c *Config) IsRemote() bool {
	return c.Mode == ModeRemote
}

// SetMode switches the execution mode.
func (c *Config) SetMode(value string) error {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeLocal:
		c.Mode = ModeLocal
	case ModeRemote:
		c.Mode = ModeRemote
	default:
		return fmt.Errorf("mode must be local|remote, got %q", value)
	}
	return nil
}

// BackendDriver returns the configured backend driver, defaulting to REST.
func (c *Config) BackendDriver() string {
	if c.Backend.Driver == "" {
		return BackendDriverREST
	}
	return strings.ToLower(c.Backend.Driver)
}

// BackendConfigured reports whether enough settings exist to reach the backend.
func (c *Config) BackendConfigured() bool {
	switch c.BackendDriver() {
	case BackendDriverPostgres:
		return c.Backend.DSN != ""
	default:
		return c.Backend.URL != "" && c.Backend.APIKey != ""
	}
}

// BackendTimeout returns the per-request backend timeout.
func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return DefaultBackendTimeout
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// FilesTable returns the storage table holding explorer entries.
func (c *Config) FilesTable() string {
	if c.Backend.FilesTable == "" {
		return DefaultFilesTable
	}
	return c.Backend.FilesTable
}

// HistoryTable returns the storage table holding command history.
func (c *Config) HistoryTable() string {
	if c.Backend.HistoryTable == "" {
		return DefaultHistoryTable
	}
	return c.Backend.HistoryTable
}

// RemoteURL returns the terminal server URL, falling back to the default.
func (c *Config) RemoteURL() string {
	if c.Remote.URL == "" {
		return DefaultRemoteURL
	}
	return c.Remote.URL
}

// HandshakeTimeout returns the WebSocket dial timeout.
func (c *Config) HandshakeTimeout() time.Duration {
	if c.Remote.HandshakeTimeoutSeconds <= 0 {
		return DefaultHandshakeTimeout
	}
	return time.Duration(c.Remote.HandshakeTimeoutSeconds) * time.Second
}

// ValidateRemoteURL checks the terminal server URL scheme.
func ValidateRemoteURL(url string) error {
	trimmed := strings.TrimSpace(url)
	if !strings.HasPrefix(trimmed, "ws://") && !strings.HasPrefix(trimmed, "wss://") {
		return fmt.Errorf("WebSocket URL must start with ws:// or wss://")
	}
	return nil
}

// HistoryDriver resolves the history persistence driver. An unset driver
// follows the backend when one is configured and sqlite otherwise.
func (c *Config) HistoryDriver() string {
	if c.History.Driver != "" {
		return strings.ToLower(c.History.Driver)
	}
	if c.BackendConfigured() {
		return HistoryDriverBackend
	}
	return HistoryDriverSQLite
}

// HistorySeedLimit returns how many recent commands pre-seed a session.
func (c *Config) HistorySeedLimit() int {
	if c.History.SeedLimit <= 0 {
		return DefaultHistorySeedLimit
	}
	return c.History.SeedLimit
}

// CacheTTL parses the listing cache TTL.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTL == "" {
		return DefaultCacheTTL
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || ttl <= 0 {
		return DefaultCacheTTL
	}
	return ttl
}

// CacheMaxEntries returns the maximum number of cached listings.
func (c *Config) CacheMaxEntries() int {
	if c.Cache.MaxEntries <= 0 {
		return DefaultMaxCacheEntries
	}
	return c.Cache.MaxEntries
}

// IsSecurityEnabled checks if guardrails apply to remote commands.
func (c *Config) IsSecurityEnabled() bool {
	return c.Security.Enabled
}

// PromptLabel returns the user@host label shown before the working directory.
func (c *Config) PromptLabel() string {
	if c.Simulator.Prompt == "" {
		return DefaultPromptLabel
	}
	return c.Simulator.Prompt
}
