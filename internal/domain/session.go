package domain

import "strings"

// NotBrowsing is the history cursor value used when the user is not walking
// through edit history.
const NotBrowsing = -1

// Output is a renderable command result: either one text block or an ordered
// list of lines.
type Output struct {
	text  string
	lines []string
}

// TextOutput wraps a single text block.
func TextOutput(text string) Output {
	return Output{text: text}
}

// LinesOutput wraps an ordered list of lines. A nil slice is still a line list.
func LinesOutput(lines []string) Output {
	if lines == nil {
		lines = []string{}
	}
	return Output{lines: lines}
}

// IsLines reports whether the output is a list of lines.
func (o Output) IsLines() bool {
	return o.lines != nil
}

// Lines returns the output as lines. A text block is split on newlines.
func (o Output) Lines() []string {
	if o.lines != nil {
		return o.lines
	}
	if o.text == "" {
		return nil
	}
	return strings.Split(o.text, "\n")
}

// Text returns the single text block, or "" for line output.
func (o Output) Text() string {
	return o.text
}

// String joins line output with newlines.
func (o Output) String() string {
	if o.lines != nil {
		return strings.Join(o.lines, "\n")
	}
	return o.text
}

// IsEmpty reports whether there is nothing to render.
func (o Output) IsEmpty() bool {
	return o.text == "" && len(o.lines) == 0
}

// TranscriptEntry is one echoed input line and the output it produced. Entries
// delivered out of band by a remote channel have an empty InputLine.
type TranscriptEntry struct {
	InputLine string
	Output    Output
	// Cwd is the working directory the line was entered in.
	Cwd string
}

// PromptDir returns the directory to show in the entry's echoed prompt,
// falling back to current for entries without one.
func (e TranscriptEntry) PromptDir(current string) string {
	if e.Cwd == "" {
		return current
	}
	return e.Cwd
}

// SessionState is the whole mutable state of one terminal session.
type SessionState struct {
	CurrentDirectory string
	Transcript       []TranscriptEntry
	EditHistory      []string
	HistoryCursor    int
}

// NewSessionState returns the state of a fresh session.
func NewSessionState() SessionState {
	return SessionState{
		CurrentDirectory: HomePath,
		HistoryCursor:    NotBrowsing,
	}
}

// Browsing reports whether the history cursor points at an entry.
func (s SessionState) Browsing() bool {
	return s.HistoryCursor != NotBrowsing
}

// Request is the input handed to an interpreter.
type Request struct {
	Line string
	Cwd  string
}

// Result is what an interpreter returns for one line. It is always renderable:
// Err only classifies the failure that Output already describes.
type Result struct {
	Output Output
	// Cwd is set when the command changes the working directory.
	Cwd *string
	// Clear asks the session to empty the transcript.
	Clear bool
	// Pending marks output that will arrive later through the remote channel.
	Pending bool
	// Fallback asks the session to switch to local simulation and re-run the line.
	Fallback bool
	// Command is the normalized command name, used for metrics.
	Command string
	Err     error
}

// WithCwd returns a copy of r carrying a working directory effect.
func (r Result) WithCwd(path string) Result {
	r.Cwd = &path
	return r
}
