package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/cmdcenter/internal/application/interpreter"
	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/logger"
	"github.com/doeshing/cmdcenter/internal/ports"
)

type stubFactory struct {
	remote    ports.Interpreter
	remoteErr error
}

func (f stubFactory) ForConfig(cfg domain.Config) (ports.Interpreter, error) {
	if cfg.IsRemote() {
		return f.remote, f.remoteErr
	}
	return interpreter.NewLocal(nil, nil), nil
}

type stubRemote struct {
	result  domain.Result
	lines   []string
	events  chan domain.ChannelEvent
	closed  bool
	connect int
}

func (s *stubRemote) Mode() domain.Mode { return domain.ModeRemote }

func (s *stubRemote) Interpret(_ context.Context, req domain.Request) domain.Result {
	s.lines = append(s.lines, req.Line)
	return s.result
}

func (s *stubRemote) Events() <-chan domain.ChannelEvent { return s.events }
func (s *stubRemote) Connect(context.Context) error      { s.connect++; return nil }
func (s *stubRemote) Close() error                       { s.closed = true; return nil }

type stubRecorder struct {
	commands []string
	err      error
}

func (s *stubRecorder) RecordCommand(_ context.Context, command, _ string) error {
	s.commands = append(s.commands, command)
	return s.err
}

func newLocalManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), domain.Config{}, stubFactory{}, nil, logger.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	return m
}

func outputs(state domain.SessionState) []string {
	out := make([]string, 0, len(state.Transcript))
	for _, entry := range state.Transcript {
		out = append(out, entry.Output.String())
	}
	return out
}

func TestNewManagerRequiresDependencies(t *testing.T) {
	if _, err := NewManager(context.Background(), domain.Config{}, nil, nil, logger.NewNop(), nil); err == nil {
		t.Fatal("expected error without factory")
	}
}

func TestSubmitIgnoresBlankLines(t *testing.T) {
	m := newLocalManager(t)
	m.SetBuffer("   ")
	m.Submit(context.Background(), "   ")

	state := m.State()
	if len(state.EditHistory) != 0 || len(state.Transcript) != 0 {
		t.Errorf("blank submit changed state: %+v", state)
	}
	if m.Buffer() != "   " {
		t.Errorf("blank submit cleared buffer")
	}
}

func TestSubmitScenario(t *testing.T) {
	m := newLocalManager(t)
	ctx := context.Background()
	for _, line := range []string{"cd documents", "pwd", "cat notes.txt", "cd ..", "pwd"} {
		m.Submit(ctx, line)
	}

	state := m.State()
	want := []string{"", "/home/user/documents", "Some important notes", "", "/home/user"}
	if diff := cmp.Diff(want, outputs(state)); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	if state.Transcript[1].InputLine != "pwd" {
		t.Errorf("input line not echoed: %q", state.Transcript[1].InputLine)
	}
	if state.CurrentDirectory != domain.HomePath {
		t.Errorf("cwd = %s", state.CurrentDirectory)
	}
	wantHistory := []string{"pwd", "cd ..", "cat notes.txt", "pwd", "cd documents"}
	if diff := cmp.Diff(wantHistory, state.EditHistory); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitClearEmptiesTranscript(t *testing.T) {
	for _, prior := range []int{0, 1, 5} {
		m := newLocalManager(t)
		for i := 0; i < prior; i++ {
			m.Submit(context.Background(), "echo hi")
		}
		m.Submit(context.Background(), "clear")

		state := m.State()
		if len(state.Transcript) != 0 {
			t.Errorf("prior=%d: transcript has %d entries after clear", prior, len(state.Transcript))
		}
		if state.EditHistory[0] != "clear" {
			t.Errorf("prior=%d: clear not in history", prior)
		}
	}
}

func TestSubmitKeepsDuplicates(t *testing.T) {
	m := newLocalManager(t)
	m.Submit(context.Background(), "ls")
	m.Submit(context.Background(), "ls")

	if diff := cmp.Diff([]string{"ls", "ls"}, m.State().EditHistory); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryBrowsing(t *testing.T) {
	m := newLocalManager(t)
	lines := []string{"echo one", "echo two", "echo three"}
	for _, line := range lines {
		m.Submit(context.Background(), line)
	}

	var got []string
	for range lines {
		m.HistoryUp()
		got = append(got, m.Buffer())
	}
	if diff := cmp.Diff([]string{"echo three", "echo two", "echo one"}, got); diff != "" {
		t.Errorf("HistoryUp sequence mismatch (-want +got):\n%s", diff)
	}

	m.HistoryUp()
	if m.Buffer() != "echo one" || m.State().HistoryCursor != 2 {
		t.Errorf("HistoryUp should clamp at oldest, cursor=%d buffer=%q", m.State().HistoryCursor, m.Buffer())
	}

	m.HistoryDown()
	if m.Buffer() != "echo two" || m.State().HistoryCursor != 1 {
		t.Errorf("after one HistoryDown cursor=%d buffer=%q", m.State().HistoryCursor, m.Buffer())
	}
	m.HistoryDown()
	if m.State().HistoryCursor != 0 || m.Buffer() != "echo three" {
		t.Errorf("expected newest entry, cursor=%d buffer=%q", m.State().HistoryCursor, m.Buffer())
	}
	m.HistoryDown()
	if m.State().Browsing() || m.Buffer() != "" {
		t.Errorf("expected browsing exit, cursor=%d buffer=%q", m.State().HistoryCursor, m.Buffer())
	}

	m.SetBuffer("draft")
	m.HistoryDown()
	if m.Buffer() != "draft" {
		t.Errorf("HistoryDown while not browsing should be a no-op, buffer=%q", m.Buffer())
	}
}

func TestHistoryUpOnEmptyHistory(t *testing.T) {
	m := newLocalManager(t)
	m.SetBuffer("typing")
	m.HistoryUp()
	if m.Buffer() != "typing" || m.State().Browsing() {
		t.Errorf("HistoryUp on empty history changed state")
	}
}

func TestSubmitResetsCursor(t *testing.T) {
	m := newLocalManager(t)
	m.Submit(context.Background(), "pwd")
	m.HistoryUp()
	m.Submit(context.Background(), m.Buffer())

	if m.State().Browsing() {
		t.Error("cursor should reset after submit")
	}
	if m.Buffer() != "" {
		t.Errorf("buffer = %q after submit", m.Buffer())
	}
}

func TestSubmitRecordFailureIsSwallowed(t *testing.T) {
	rec := &stubRecorder{err: errors.New("disk full")}
	m, err := NewManager(context.Background(), domain.Config{}, stubFactory{}, rec, logger.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	m.Submit(context.Background(), "echo hi")

	if len(rec.commands) != 1 {
		t.Fatalf("recorded %d commands", len(rec.commands))
	}
	if got := outputs(m.State()); len(got) != 1 || got[0] != "hi" {
		t.Errorf("transcript = %v", got)
	}
}

func TestSubmitFallbackRerunsLocally(t *testing.T) {
	remote := &stubRemote{result: domain.Result{
		Output:   domain.TextOutput(interpreter.FallbackMessage),
		Fallback: true,
	}}
	cfg := domain.Config{Mode: domain.ModeRemote}
	rec := &stubRecorder{}
	m, err := NewManager(context.Background(), cfg, stubFactory{remote: remote}, rec, logger.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	if m.Mode() != domain.ModeRemote {
		t.Fatalf("mode = %s", m.Mode())
	}

	m.Submit(context.Background(), "pwd")

	if m.Mode() != domain.ModeLocal {
		t.Errorf("mode after fallback = %s", m.Mode())
	}
	if !remote.closed {
		t.Error("remote interpreter not closed")
	}
	want := []string{interpreter.FallbackMessage, domain.HomePath}
	if diff := cmp.Diff(want, outputs(m.State())); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pwd"}, rec.commands); diff != "" {
		t.Errorf("recorded commands mismatch (-want +got):\n%s", diff)
	}
}

func TestDeliverOutputAndError(t *testing.T) {
	remote := &stubRemote{result: domain.Result{Pending: true}, events: make(chan domain.ChannelEvent)}
	m, err := NewManager(context.Background(), domain.Config{Mode: domain.ModeRemote}, stubFactory{remote: remote}, nil, logger.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	m.Deliver(domain.ChannelEvent{Message: domain.InboundMessage{
		Output: "a.txt\n",
		Error:  "ls: missing: No such file",
		Cwd:    "/srv",
	}})

	state := m.State()
	want := []string{"a.txt\n", "Error: ls: missing: No such file"}
	if diff := cmp.Diff(want, outputs(state)); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	if state.CurrentDirectory != "/srv" {
		t.Errorf("cwd = %s, want /srv", state.CurrentDirectory)
	}
}

func TestDeliver(t *testing.T) {
	remote := &stubRemote{result: domain.Result{Pending: true}, events: make(chan domain.ChannelEvent)}
	m, err := NewManager(context.Background(), domain.Config{Mode: domain.ModeRemote}, stubFactory{remote: remote}, nil, logger.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	if remote.connect != 1 {
		t.Errorf("reload should connect once, got %d", remote.connect)
	}
	if m.Events() == nil {
		t.Fatal("remote manager should expose events")
	}

	m.Submit(context.Background(), "ls")
	m.Deliver(domain.ChannelEvent{Message: domain.InboundMessage{Type: domain.MessageTypeOutput, Output: "a.txt"}})
	m.Deliver(domain.ChannelEvent{Message: domain.InboundMessage{Error: "permission denied"}})
	m.Deliver(domain.ChannelEvent{Message: domain.InboundMessage{Cwd: "/srv/app"}})

	state := m.State()
	want := []string{"", "a.txt", "Error: permission denied"}
	if diff := cmp.Diff(want, outputs(state)); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	if state.Transcript[1].InputLine != "" {
		t.Errorf("delivered entry has input line %q", state.Transcript[1].InputLine)
	}
	if state.CurrentDirectory != "/srv/app" {
		t.Errorf("cwd = %s, want server-declared /srv/app", state.CurrentDirectory)
	}

	m.Deliver(domain.ChannelEvent{Status: domain.StatusFailed, Err: errors.New("eof")})
	if m.Mode() != domain.ModeLocal {
		t.Errorf("mode after failure = %s", m.Mode())
	}
	if got := outputs(m.State()); got[len(got)-1] != interpreter.FallbackMessage {
		t.Errorf("last entry = %q", got[len(got)-1])
	}
	if m.Events() != nil {
		t.Error("local manager should not expose events")
	}
}

func TestSeed(t *testing.T) {
	records := []domain.CommandRecord{
		{Command: "pwd", Output: "/home/user"},
		{Command: " "},
		{Command: "echo hi", Output: "hi"},
	}

	m := newLocalManager(t)
	m.Seed(records, true)

	state := m.State()
	if diff := cmp.Diff([]string{"pwd", "echo hi"}, state.EditHistory); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	if len(state.Transcript) != 2 || state.Transcript[0].InputLine != "echo hi" {
		t.Errorf("replay should be oldest first, got %+v", state.Transcript)
	}

	m.HistoryUp()
	if m.Buffer() != "pwd" {
		t.Errorf("first HistoryUp after seed = %q", m.Buffer())
	}
}

func TestReloadFallsBackToLocalOnError(t *testing.T) {
	m := newLocalManager(t)
	cfg := domain.Config{
		Mode:    domain.ModeRemote,
		Backend: domain.BackendSettings{URL: "https://x.supabase.co", APIKey: "anon"},
	}
	m.Factory = stubFactory{remoteErr: errors.New("bad url")}

	if err := m.Reload(context.Background(), cfg); err == nil {
		t.Fatal("expected reload error")
	}
	if m.Mode() != domain.ModeLocal {
		t.Errorf("mode = %s", m.Mode())
	}
	if !m.BackendConnected() {
		t.Error("backend should be connected after reload")
	}
}

func TestTranscriptEntryKeepsSubmissionDirectory(t *testing.T) {
	m := newLocalManager(t)
	m.Submit(context.Background(), "cd documents")
	m.Submit(context.Background(), "ls")

	state := m.State()
	got := []string{state.Transcript[0].Cwd, state.Transcript[1].Cwd}
	want := []string{domain.HomePath, domain.HomePath + "/documents"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry directories mismatch (-want +got):\n%s", diff)
	}
	if dir := state.Transcript[0].PromptDir(state.CurrentDirectory); dir != domain.HomePath {
		t.Errorf("PromptDir = %s", dir)
	}
	if dir := (domain.TranscriptEntry{}).PromptDir("/srv"); dir != "/srv" {
		t.Errorf("PromptDir without cwd = %s", dir)
	}
}
