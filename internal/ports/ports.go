// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The interpreter and session manager depend only on
// these interfaces, so the storage backend, history store, remote channel and
// settings store can be swapped without touching the core.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Interpreter, ConfigProvider)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/doeshing/cmdcenter/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.cmdcenter/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Interpreter resolves one command line. Implementations never fail: every
// outcome, including errors, is carried in the returned Result.
type Interpreter interface {
	Mode() domain.Mode
	Interpret(ctx context.Context, req domain.Request) domain.Result
}

// InterpreterFactory builds the interpreter for the configured mode.
type InterpreterFactory interface {
	ForConfig(domain.Config) (Interpreter, error)
}

// CommandRecorder persists executed commands.
type CommandRecorder interface {
	RecordCommand(ctx context.Context, command, output string) error
}

// CommandHistoryRepository stores and queries command history.
type CommandHistoryRepository interface {
	CommandRecorder
	// RecentCommands returns up to limit records, most recent first.
	RecentCommands(ctx context.Context, limit int) ([]domain.CommandRecord, error)
	Search(ctx context.Context, term string, limit int) ([]domain.CommandRecord, error)
	Clear(ctx context.Context) error
}

// StorageBackend is the hosted storage service behind the file explorer.
type StorageBackend interface {
	Name() string
	FetchEntries(ctx context.Context, parentPath string) ([]domain.StorageEntry, error)
	CreateEntry(ctx context.Context, entry domain.StorageEntry) (domain.StorageEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// ListingCache keeps the last known listing per parent path for offline use.
type ListingCache interface {
	Get(parentPath string) ([]domain.StorageEntry, bool, error)
	Set(parentPath string, entries []domain.StorageEntry) error
	Invalidate(parentPath string) error
}

// RemoteChannel is the duplex connection to a terminal server. Inbound messages
// and status changes arrive on Events.
type RemoteChannel interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg domain.OutboundMessage) error
	Status() domain.ConnectionStatus
	Events() <-chan domain.ChannelEvent
	Close() error
}

// SecurityService evaluates commands against security rules to prevent dangerous operations.
// Remote mode consults it before forwarding a line to the terminal server.
type SecurityService interface {
	Evaluate(command string) (domain.RiskAssessment, error)
}

// Clock returns the current time. Injected so date output is testable.
type Clock interface {
	Now() time.Time
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

// Metrics records command and channel counters. A nil Metrics disables recording.
type Metrics interface {
	CommandExecuted(command string, mode domain.Mode)
	CommandFailed(kind string)
	ChannelReconnect()
	ChannelConnected(connected bool)
	BackendRequest(op, outcome string)
}

// EventSource is implemented by interpreters that deliver output asynchronously.
type EventSource interface {
	Events() <-chan domain.ChannelEvent
}
