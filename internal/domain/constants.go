package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultBackendTimeout bounds a single storage backend request
	DefaultBackendTimeout = 15 * time.Second
	// DefaultHandshakeTimeout bounds the WebSocket dial
	DefaultHandshakeTimeout = 5 * time.Second
	// DefaultCacheTTL is how long a cached listing stays valid
	DefaultCacheTTL = time.Hour
)

// Limit constants
const (
	// DefaultMaxCacheEntries is the maximum number of cached listings
	DefaultMaxCacheEntries = 100
	// DefaultHistorySeedLimit is how many recent commands pre-seed a session
	DefaultHistorySeedLimit = 100
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
	// MaxHistoryAnalysisRecords is the maximum number of records to analyze
	MaxHistoryAnalysisRecords = 1000
)

// Backend defaults
const (
	DefaultFilesTable   = "files"
	DefaultHistoryTable = "command_history"
	DefaultRemoteURL    = "ws://localhost:8000/ws/terminal"
	DefaultPromptLabel  = "user@web-cmd"
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
