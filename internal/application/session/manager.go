// Package session owns the terminal session state: transcript, edit history,
// history cursor and working directory. The Manager is not safe for concurrent
// use; exactly one event loop drives it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/cmdcenter/internal/application/interpreter"
	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// Status advisories appended when the remote channel changes state.
const (
	ConnectedMessage    = "Connected to terminal server"
	DisconnectedMessage = "Disconnected from terminal server"
	FallbackMessage     = interpreter.FallbackMessage
)

// Manager mediates between line-editing events and the active interpreter.
type Manager struct {
	Factory  ports.InterpreterFactory
	Recorder ports.CommandRecorder
	Logger   ports.Logger
	Metrics  ports.Metrics

	state            domain.SessionState
	buffer           string
	active           ports.Interpreter
	local            ports.Interpreter
	backendConnected bool
}

// NewManager builds a manager and applies cfg through Reload.
func NewManager(ctx context.Context, cfg domain.Config, factory ports.InterpreterFactory, recorder ports.CommandRecorder, logger ports.Logger, metrics ports.Metrics) (*Manager, error) {
	if factory == nil || logger == nil {
		return nil, errors.New("session.Manager dependencies not satisfied")
	}
	m := &Manager{
		Factory:  factory,
		Recorder: recorder,
		Logger:   logger,
		Metrics:  metrics,
		state:    domain.NewSessionState(),
	}
	if err := m.Reload(ctx, cfg); err != nil {
		return m, err
	}
	return m, nil
}

// State returns a snapshot of the session state.
func (m *Manager) State() domain.SessionState {
	snapshot := m.state
	snapshot.Transcript = append([]domain.TranscriptEntry(nil), m.state.Transcript...)
	snapshot.EditHistory = append([]string(nil), m.state.EditHistory...)
	return snapshot
}

// Buffer returns the current edit buffer.
func (m *Manager) Buffer() string {
	return m.buffer
}

// SetBuffer replaces the edit buffer with what the user typed.
func (m *Manager) SetBuffer(text string) {
	m.buffer = text
}

// Mode reports which interpreter is active.
func (m *Manager) Mode() domain.Mode {
	if m.active == nil {
		return domain.ModeLocal
	}
	return m.active.Mode()
}

// BackendConnected reports whether the storage backend is configured.
func (m *Manager) BackendConnected() bool {
	return m.backendConnected
}

// Events returns the active interpreter's asynchronous event stream, or nil
// when it has none. A nil channel blocks forever in a select.
func (m *Manager) Events() <-chan domain.ChannelEvent {
	if source, ok := m.active.(ports.EventSource); ok {
		return source.Events()
	}
	return nil
}

// Submit runs one line through the active interpreter and records the outcome.
func (m *Manager) Submit(ctx context.Context, line string) {
	if isBlank(line) {
		return
	}
	m.state.EditHistory = append([]string{line}, m.state.EditHistory...)
	m.state.HistoryCursor = domain.NotBrowsing
	m.buffer = ""

	res := m.interpret(ctx, m.active, line)
	if res.Fallback {
		m.appendEntry(line, res.Output)
		m.switchToLocal("interpreter requested fallback")
		res = m.interpret(ctx, m.local, line)
		m.apply("", res)
		m.record(ctx, line, res.Output.String())
		return
	}

	m.apply(line, res)
	m.record(ctx, line, res.Output.String())
}

// HistoryUp moves the cursor one entry older, clamped at the oldest entry.
func (m *Manager) HistoryUp() {
	if len(m.state.EditHistory) == 0 {
		return
	}
	if m.state.HistoryCursor < len(m.state.EditHistory)-1 {
		m.state.HistoryCursor++
	}
	m.buffer = m.state.EditHistory[m.state.HistoryCursor]
}

// HistoryDown moves the cursor one entry newer. Past the newest entry it stops
// browsing and clears the buffer.
func (m *Manager) HistoryDown() {
	if !m.state.Browsing() {
		return
	}
	if m.state.HistoryCursor > 0 {
		m.state.HistoryCursor--
		m.buffer = m.state.EditHistory[m.state.HistoryCursor]
		return
	}
	m.state.HistoryCursor = domain.NotBrowsing
	m.buffer = ""
}

// Deliver applies an event that arrived out of band from the remote channel.
func (m *Manager) Deliver(event domain.ChannelEvent) {
	if event.IsStatus() {
		m.deliverStatus(event)
		return
	}

	msg := event.Message
	if msg.Output != "" {
		m.appendEntry("", domain.TextOutput(msg.Output))
	}
	if msg.Error != "" {
		m.appendEntry("", domain.TextOutput("Error: "+msg.Error))
	}
	if msg.Cwd != "" {
		// The server-declared directory is adopted without checking it
		// against the local tree.
		m.Logger.Info("adopting server working directory", map[string]interface{}{
			"previous": m.state.CurrentDirectory,
			"cwd":      msg.Cwd,
		})
		m.state.CurrentDirectory = msg.Cwd
	}
}

func (m *Manager) deliverStatus(event domain.ChannelEvent) {
	if m.Metrics != nil {
		m.Metrics.ChannelConnected(event.Status == domain.StatusConnected)
	}
	remote := m.Mode() == domain.ModeRemote

	switch event.Status {
	case domain.StatusConnected:
		if remote {
			m.appendEntry("", domain.TextOutput(ConnectedMessage))
		}
	case domain.StatusDisconnected:
		if remote {
			m.appendEntry("", domain.TextOutput(DisconnectedMessage))
		}
	case domain.StatusFailed:
		if event.Err != nil {
			m.Logger.Warn("terminal server connection failed", map[string]interface{}{"error": event.Err.Error()})
		}
		if remote {
			m.appendEntry("", domain.TextOutput(FallbackMessage))
			m.switchToLocal("channel failed")
		}
	}
}

// Seed pre-fills edit history from persisted records given most recent first.
// With replay the records are also echoed into the transcript oldest first.
func (m *Manager) Seed(records []domain.CommandRecord, replay bool) {
	seeded := make([]string, 0, len(records))
	for _, record := range records {
		if isBlank(record.Command) {
			continue
		}
		seeded = append(seeded, record.Command)
	}
	m.state.EditHistory = append(m.state.EditHistory, seeded...)

	if !replay {
		return
	}
	for i := len(records) - 1; i >= 0; i-- {
		if isBlank(records[i].Command) {
			continue
		}
		m.appendEntry(records[i].Command, domain.TextOutput(records[i].Output))
	}
}

// Reload re-evaluates settings: whether the backend is connected and which
// interpreter is active. On failure the session keeps running locally.
func (m *Manager) Reload(ctx context.Context, cfg domain.Config) error {
	m.backendConnected = cfg.BackendConfigured()

	localCfg := cfg
	localCfg.Mode = domain.ModeLocal
	local, err := m.Factory.ForConfig(localCfg)
	if err != nil {
		return fmt.Errorf("failed to build local interpreter: %w", err)
	}

	next := local
	var reloadErr error
	if cfg.IsRemote() {
		remote, err := m.Factory.ForConfig(cfg)
		if err != nil {
			reloadErr = fmt.Errorf("failed to build remote interpreter: %w", err)
			m.Logger.Error("remote mode unavailable", err, nil)
		} else {
			next = remote
		}
	}

	m.closeActive()
	m.local = local
	m.active = next

	if connector, ok := next.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			m.Logger.Warn("initial terminal server connect failed", map[string]interface{}{"error": err.Error()})
		}
	}

	m.Logger.Debug("session reloaded", map[string]interface{}{
		"mode":              m.Mode(),
		"backend_connected": m.backendConnected,
	})
	return reloadErr
}

// Close releases the active interpreter's resources.
func (m *Manager) Close() error {
	return m.closeActive()
}

func (m *Manager) interpret(ctx context.Context, interp ports.Interpreter, line string) domain.Result {
	res := interp.Interpret(ctx, domain.Request{Line: line, Cwd: m.state.CurrentDirectory})
	if m.Metrics != nil {
		m.Metrics.CommandExecuted(res.Command, interp.Mode())
		if res.Err != nil {
			m.Metrics.CommandFailed(domain.ErrorKind(res.Err))
		}
	}
	return res
}

func (m *Manager) apply(line string, res domain.Result) {
	if res.Clear {
		m.state.Transcript = nil
		return
	}
	m.appendEntry(line, res.Output)
	if res.Cwd != nil {
		m.state.CurrentDirectory = *res.Cwd
	}
}

func (m *Manager) appendEntry(line string, out domain.Output) {
	m.state.Transcript = append(m.state.Transcript, domain.TranscriptEntry{
		InputLine: line,
		Output:    out,
		Cwd:       m.state.CurrentDirectory,
	})
}

func (m *Manager) record(ctx context.Context, line, output string) {
	if m.Recorder == nil {
		return
	}
	if err := m.Recorder.RecordCommand(ctx, line, output); err != nil {
		m.Logger.Warn("failed to record command", map[string]interface{}{
			"command": line,
			"error":   err.Error(),
		})
	}
}

func (m *Manager) switchToLocal(reason string) {
	if m.active == m.local {
		return
	}
	m.Logger.Info("switching to local mode", map[string]interface{}{"reason": reason})
	m.closeActive()
	m.active = m.local
}

func (m *Manager) closeActive() error {
	if m.active == nil || m.active == m.local {
		return nil
	}
	if closer, ok := m.active.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			m.Logger.Warn("failed to close interpreter", map[string]interface{}{"error": err.Error()})
			return err
		}
	}
	return nil
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
