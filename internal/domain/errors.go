package domain

import "errors"

// Interpreter error taxonomy. None of these is fatal: the interpreter renders
// each one as ordinary transcript text and keeps the sentinel on Result.Err.
var (
	ErrPathNotFound    = errors.New("no such file or directory")
	ErrNotADirectory   = errors.New("not a directory")
	ErrNotAFile        = errors.New("not a file")
	ErrMissingArgument = errors.New("missing argument")
	ErrUnknownCommand  = errors.New("command not found")
)

// Channel and backend failures.
var (
	ErrChannelUnavailable   = errors.New("remote channel unavailable")
	ErrCommandBlocked       = errors.New("command blocked by guardrail")
	ErrBackendNotConfigured = errors.New("storage backend not configured")
)

// CommandError ties a taxonomy sentinel to the command and argument that caused it.
type CommandError struct {
	Command string
	Arg     string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Arg == "" {
		return e.Command + ": " + e.Err.Error()
	}
	return e.Command + ": " + e.Arg + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ErrorKind returns a short stable label for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPathNotFound):
		return "path_not_found"
	case errors.Is(err, ErrNotADirectory):
		return "not_a_directory"
	case errors.Is(err, ErrNotAFile):
		return "not_a_file"
	case errors.Is(err, ErrMissingArgument):
		return "missing_argument"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, ErrChannelUnavailable):
		return "channel_unavailable"
	case errors.Is(err, ErrCommandBlocked):
		return "blocked"
	default:
		return "other"
	}
}
