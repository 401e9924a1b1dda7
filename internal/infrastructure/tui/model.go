// Package tui is the interactive terminal surface: a bubbletea program with a
// scrolling transcript and a single-line input. It is the only goroutine that
// touches the session manager; remote channel events and reload requests are
// injected with Program.Send.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/doeshing/cmdcenter/internal/application/session"
	"github.com/doeshing/cmdcenter/internal/domain"
)

// Welcome is printed above the transcript.
const Welcome = "Welcome to Web Command Center! Type 'help' for available commands."

const (
	headerHeight = 1
	footerHeight = 2
)

// Session is the part of session.Manager the view drives.
type Session interface {
	State() domain.SessionState
	Buffer() string
	SetBuffer(string)
	Mode() domain.Mode
	BackendConnected() bool
	Events() <-chan domain.ChannelEvent
	Submit(ctx context.Context, line string)
	HistoryUp()
	HistoryDown()
	Deliver(domain.ChannelEvent)
	Reload(ctx context.Context, cfg domain.Config) error
}

// EventMsg carries one remote channel event into the update loop.
type EventMsg domain.ChannelEvent

// ReloadMsg asks the model to re-read settings, typically on SIGHUP.
type ReloadMsg struct{}

// Options configures a Model.
type Options struct {
	Label  string
	Styles Styles
	// LoadConfig re-reads settings on ReloadMsg.
	LoadConfig func(context.Context) (domain.Config, error)
	// Watch is called with every new event stream the session exposes. The
	// caller forwards its events back as EventMsg.
	Watch func(<-chan domain.ChannelEvent)
}

// Model is the bubbletea model for the terminal view.
type Model struct {
	ctx     context.Context
	session Session
	opts    Options

	input    textinput.Model
	viewport viewport.Model
	ready    bool
	width    int
	notice   string
	watched  <-chan domain.ChannelEvent
}

var (
	_ tea.Model = (*Model)(nil)
	_ Session   = (*session.Manager)(nil)
)

// New builds the view over an existing session.
func New(ctx context.Context, s Session, opts Options) *Model {
	if opts.Label == "" {
		opts.Label = domain.DefaultPromptLabel
	}
	ti := textinput.New()
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 4096
	ti.TextStyle = opts.Styles.Input

	return &Model{
		ctx:      ctx,
		session:  s,
		opts:     opts,
		input:    ti,
		viewport: viewport.New(80, 20),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.watch()
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.session.SetBuffer(line)
			m.session.Submit(m.ctx, line)
			m.syncInput()
			m.watch()
			m.refresh()
			return m, nil
		case tea.KeyUp:
			m.session.SetBuffer(m.input.Value())
			m.session.HistoryUp()
			m.syncInput()
			return m, nil
		case tea.KeyDown:
			m.session.SetBuffer(m.input.Value())
			m.session.HistoryDown()
			m.syncInput()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.session.SetBuffer(m.input.Value())
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := msg.Height - headerHeight - footerHeight
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = msg.Width - lipgloss.Width(m.prompt()) - 1
		m.refresh()

	case EventMsg:
		m.session.Deliver(domain.ChannelEvent(msg))
		m.watch()
		m.refresh()

	case ReloadMsg:
		m.reload()
		m.watch()
		m.refresh()
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.opts.Styles.Header.Render("Terminal"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.opts.Styles.Prompt.Render(m.prompt()))
	b.WriteString(" ")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m *Model) prompt() string {
	return Prompt(m.opts.Label, m.session.State().CurrentDirectory)
}

func (m *Model) statusLine() string {
	styles := m.opts.Styles
	backend := styles.Offline.Render("backend offline")
	if m.session.BackendConnected() {
		backend = styles.Online.Render("backend connected")
	}
	parts := []string{"mode: " + string(m.session.Mode()), backend}
	if m.notice != "" {
		parts = append(parts, m.notice)
	}
	parts = append(parts, "ctrl+c quit")
	return styles.Status.Render(strings.Join(parts, " | "))
}

func (m *Model) syncInput() {
	m.input.SetValue(m.session.Buffer())
	m.input.CursorEnd()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	styles := m.opts.Styles
	state := m.session.State()

	lines := []string{styles.Advisory.Render(Welcome)}
	for _, entry := range state.Transcript {
		if entry.InputLine != "" {
			prompt := Prompt(m.opts.Label, entry.PromptDir(state.CurrentDirectory))
			lines = append(lines, styles.Prompt.Render(prompt)+" "+styles.Input.Render(entry.InputLine))
		}
		for _, line := range entry.Output.Lines() {
			lines = append(lines, styleLine(styles, line))
		}
	}
	content := strings.Join(lines, "\n")
	if m.width > 0 {
		content = lipgloss.NewStyle().Width(m.width).Render(content)
	}
	return content
}

func (m *Model) reload() {
	if m.opts.LoadConfig == nil {
		return
	}
	cfg, err := m.opts.LoadConfig(m.ctx)
	if err != nil {
		m.notice = "reload failed: " + err.Error()
		return
	}
	if err := m.session.Reload(m.ctx, cfg); err != nil {
		m.notice = "reload: " + err.Error()
		return
	}
	m.opts.Label = cfg.PromptLabel()
	m.notice = "settings reloaded"
}

// watch hands a new event stream to the forwarder when the active
// interpreter changed.
func (m *Model) watch() {
	events := m.session.Events()
	if events == m.watched {
		return
	}
	m.watched = events
	if events != nil && m.opts.Watch != nil {
		m.opts.Watch(events)
	}
}

// Prompt renders the shell prompt for cwd, e.g. "user@web-cmd:~/documents$".
func Prompt(label, cwd string) string {
	return label + ":" + domain.DisplayPath(cwd) + "$"
}

func styleLine(styles Styles, line string) string {
	switch {
	case strings.HasPrefix(line, "Error: "), strings.HasPrefix(line, "remote: blocked"):
		return styles.Error.Render(line)
	case strings.HasPrefix(line, "remote: warning"), isAdvisory(line):
		return styles.Advisory.Render(line)
	default:
		return styles.Output.Render(line)
	}
}

func isAdvisory(line string) bool {
	switch line {
	case session.ConnectedMessage, session.DisconnectedMessage, session.FallbackMessage:
		return true
	}
	return false
}
