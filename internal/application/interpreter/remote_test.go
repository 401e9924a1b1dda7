package interpreter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/logger"
	"github.com/doeshing/cmdcenter/internal/ports"
)

type stubChannel struct {
	status     domain.ConnectionStatus
	connectErr error
	sendErr    error
	connects   int
	sent       []domain.OutboundMessage
	events     chan domain.ChannelEvent
	closed     bool
}

func (s *stubChannel) Connect(context.Context) error {
	s.connects++
	if s.connectErr != nil {
		s.status = domain.StatusFailed
		return s.connectErr
	}
	s.status = domain.StatusConnected
	return nil
}

func (s *stubChannel) Send(_ context.Context, msg domain.OutboundMessage) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubChannel) Status() domain.ConnectionStatus    { return s.status }
func (s *stubChannel) Events() <-chan domain.ChannelEvent { return s.events }
func (s *stubChannel) Close() error                       { s.closed = true; return nil }

type stubSecurity struct {
	risk domain.RiskAssessment
	err  error
}

func (s stubSecurity) Evaluate(string) (domain.RiskAssessment, error) {
	return s.risk, s.err
}

type countingMetrics struct {
	reconnects int
}

func (m *countingMetrics) CommandExecuted(string, domain.Mode) {}
func (m *countingMetrics) CommandFailed(string)                {}
func (m *countingMetrics) ChannelReconnect()                   { m.reconnects++ }
func (m *countingMetrics) ChannelConnected(bool)               {}
func (m *countingMetrics) BackendRequest(string, string)       {}

func TestRemoteSendsExecuteEnvelope(t *testing.T) {
	ch := &stubChannel{status: domain.StatusConnected}
	r := NewRemote(ch, nil, logger.NewNop(), nil)

	res := r.Interpret(context.Background(), domain.Request{Line: "  ls -la ", Cwd: "/srv"})

	if !res.Pending {
		t.Fatal("expected pending result")
	}
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(ch.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(ch.sent))
	}
	want := domain.OutboundMessage{Type: "execute_command", Command: "ls -la", Cwd: "/srv"}
	if ch.sent[0] != want {
		t.Errorf("sent %+v, want %+v", ch.sent[0], want)
	}
	if ch.connects != 0 {
		t.Errorf("connected channel should not reconnect, got %d connects", ch.connects)
	}
}

func TestRemoteClearIsLocal(t *testing.T) {
	ch := &stubChannel{status: domain.StatusDisconnected}
	res := NewRemote(ch, nil, nil, nil).Interpret(context.Background(), domain.Request{Line: "CLEAR"})

	if !res.Clear {
		t.Fatal("expected clear effect")
	}
	if len(ch.sent) != 0 || ch.connects != 0 {
		t.Errorf("clear touched the channel: sent=%d connects=%d", len(ch.sent), ch.connects)
	}
}

func TestRemoteReconnectsOnce(t *testing.T) {
	ch := &stubChannel{status: domain.StatusDisconnected}
	metrics := &countingMetrics{}
	res := NewRemote(ch, nil, nil, metrics).Interpret(context.Background(), domain.Request{Line: "uptime"})

	if !res.Pending {
		t.Fatalf("expected pending after reconnect, got %+v", res)
	}
	if ch.connects != 1 || metrics.reconnects != 1 {
		t.Errorf("connects=%d reconnects=%d, want 1 and 1", ch.connects, metrics.reconnects)
	}
}

func TestRemoteFallsBackWhenUnavailable(t *testing.T) {
	tests := []struct {
		name string
		ch   *stubChannel
	}{
		{name: "reconnect fails", ch: &stubChannel{status: domain.StatusDisconnected, connectErr: errors.New("refused")}},
		{name: "send fails", ch: &stubChannel{status: domain.StatusConnected, sendErr: errors.New("broken pipe")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewRemote(tt.ch, nil, logger.NewNop(), nil).Interpret(context.Background(), domain.Request{Line: "ls"})

			if !res.Fallback {
				t.Fatal("expected fallback")
			}
			if res.Output.String() != FallbackMessage {
				t.Errorf("output = %q", res.Output.String())
			}
			if !errors.Is(res.Err, domain.ErrChannelUnavailable) {
				t.Errorf("error = %v, want ErrChannelUnavailable", res.Err)
			}
			if tt.ch.connects > 1 {
				t.Errorf("reconnect attempted %d times", tt.ch.connects)
			}
		})
	}
}

func TestRemoteGuardrail(t *testing.T) {
	t.Run("block prevents send", func(t *testing.T) {
		ch := &stubChannel{status: domain.StatusConnected}
		sec := stubSecurity{risk: domain.RiskAssessment{
			Level:   domain.RiskCritical,
			Action:  domain.ActionBlock,
			Reasons: []string{"Recursive delete of root"},
		}}
		res := NewRemote(ch, sec, nil, nil).Interpret(context.Background(), domain.Request{Line: "rm -rf /"})

		if len(ch.sent) != 0 {
			t.Fatal("blocked command was sent")
		}
		if res.Output.String() != "remote: blocked: Recursive delete of root" {
			t.Errorf("output = %q", res.Output.String())
		}
		if !errors.Is(res.Err, domain.ErrCommandBlocked) {
			t.Errorf("error = %v", res.Err)
		}
	})

	t.Run("warn forwards with advisory", func(t *testing.T) {
		ch := &stubChannel{status: domain.StatusConnected}
		sec := stubSecurity{risk: domain.RiskAssessment{
			Level:   domain.RiskMedium,
			Action:  domain.ActionWarn,
			Reasons: []string{"Changes permissions"},
		}}
		res := NewRemote(ch, sec, nil, nil).Interpret(context.Background(), domain.Request{Line: "chmod 777 x"})

		if len(ch.sent) != 1 {
			t.Fatal("warned command should still be sent")
		}
		if !strings.Contains(res.Output.String(), "remote: warning (medium): Changes permissions") {
			t.Errorf("output = %q", res.Output.String())
		}
	})

	t.Run("evaluation error still forwards", func(t *testing.T) {
		ch := &stubChannel{status: domain.StatusConnected}
		res := NewRemote(ch, stubSecurity{err: errors.New("bad rules")}, logger.NewNop(), nil).
			Interpret(context.Background(), domain.Request{Line: "ls"})
		if !res.Pending || len(ch.sent) != 1 {
			t.Errorf("expected forward, got %+v", res)
		}
	})
}

func TestFactoryForConfig(t *testing.T) {
	var dialed int
	f := &Factory{
		Dialer: func(domain.Config) (ports.RemoteChannel, error) {
			dialed++
			return &stubChannel{}, nil
		},
	}

	local, err := f.ForConfig(domain.Config{Mode: domain.ModeLocal})
	if err != nil {
		t.Fatalf("ForConfig(local) error: %v", err)
	}
	if local.Mode() != domain.ModeLocal {
		t.Errorf("mode = %s", local.Mode())
	}

	remote, err := f.ForConfig(domain.Config{Mode: domain.ModeRemote})
	if err != nil {
		t.Fatalf("ForConfig(remote) error: %v", err)
	}
	if remote.Mode() != domain.ModeRemote || dialed != 1 {
		t.Errorf("mode = %s dialed = %d", remote.Mode(), dialed)
	}

	if _, err := f.ForConfig(domain.Config{Mode: domain.ModeRemote, Remote: domain.RemoteSettings{URL: "http://x"}}); err == nil {
		t.Error("expected URL validation error")
	}
}
