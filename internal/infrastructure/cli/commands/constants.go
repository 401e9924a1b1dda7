package commands

import "github.com/doeshing/cmdcenter/internal/domain"

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"
	// StdoutPath selects standard output for export commands
	StdoutPath = "-"
	// MaskedSecret replaces secrets in printed configuration
	MaskedSecret = "********"
)

// History display limits
const (
	DefaultHistoryLimit       = domain.DefaultHistoryLimit
	DefaultHistorySearchLimit = domain.DefaultHistorySearchLimit
	MaxHistoryAnalysisRecords = domain.MaxHistoryAnalysisRecords
	TopCommandsShown          = 5
)

// Error messages
const (
	ErrConfigLoaderUnavailable = "config loader unavailable"
	ErrKeyRequired             = "--key is required"
	ErrQueryRequired           = "search term or --query required"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No history recorded yet."
	MsgHistoryCleared           = "History cleared."
	MsgEmptyDirectory           = "(empty)"
	MsgServedFromCache          = "Backend unreachable; showing cached listing."
)
