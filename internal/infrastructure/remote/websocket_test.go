package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// terminalServer answers each execute_command with the given replies.
func terminalServer(t *testing.T, reply func(domain.OutboundMessage) []string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			var msg domain.OutboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			for _, payload := range reply(msg) {
				if payload == "" {
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func next(t *testing.T, ch <-chan domain.ChannelEvent) domain.ChannelEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return domain.ChannelEvent{}
}

func TestWebSocketChannelRoundTrip(t *testing.T) {
	url := terminalServer(t, func(msg domain.OutboundMessage) []string {
		if msg.Type != domain.MessageTypeExecute {
			t.Errorf("type = %q", msg.Type)
		}
		return []string{
			`{"type":"command_output","command":"` + msg.Command + `","output":"ran ` + msg.Command + `","cwd":"/srv"}`,
			`{"error":"permission denied"}`,
			`not json`,
		}
	})
	ch := NewWebSocketChannel(url, time.Second, logger.NewNop())
	defer ch.Close()

	ctx := context.Background()
	if err := ch.Connect(ctx); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if got := next(t, ch.Events()).Status; got != domain.StatusConnecting {
		t.Errorf("first status = %s", got)
	}
	if got := next(t, ch.Events()).Status; got != domain.StatusConnected {
		t.Errorf("second status = %s", got)
	}
	if ch.Status() != domain.StatusConnected {
		t.Errorf("Status() = %s", ch.Status())
	}

	if err := ch.Send(ctx, domain.OutboundMessage{Type: domain.MessageTypeExecute, Command: "uptime", Cwd: "/home/user"}); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	want := []domain.InboundMessage{
		{Type: domain.MessageTypeOutput, Command: "uptime", Output: "ran uptime", Cwd: "/srv"},
		{Error: "permission denied"},
		{Error: ParseErrorMessage},
	}
	var got []domain.InboundMessage
	for range want {
		ev := next(t, ch.Events())
		if ev.IsStatus() {
			t.Fatalf("unexpected status event %s", ev.Status)
		}
		got = append(got, ev.Message)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestWebSocketChannelServerClose(t *testing.T) {
	url := terminalServer(t, func(domain.OutboundMessage) []string { return []string{""} })
	ch := NewWebSocketChannel(url, time.Second, nil)
	defer ch.Close()

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	next(t, ch.Events())
	next(t, ch.Events())
	if err := ch.Send(context.Background(), domain.OutboundMessage{Type: domain.MessageTypeExecute, Command: "exit"}); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	ev := next(t, ch.Events())
	if ev.Status != domain.StatusDisconnected {
		t.Fatalf("status = %s, want Disconnected", ev.Status)
	}
	if ev.Err != nil {
		t.Errorf("normal closure reported error: %v", ev.Err)
	}
	if err := ch.Send(context.Background(), domain.OutboundMessage{Command: "ls"}); !errors.Is(err, domain.ErrChannelUnavailable) {
		t.Errorf("Send() after disconnect = %v", err)
	}
}

func TestWebSocketChannelDialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	server.Close()

	ch := NewWebSocketChannel(url, 500*time.Millisecond, nil)
	defer ch.Close()

	err := ch.Connect(context.Background())
	if !errors.Is(err, domain.ErrChannelUnavailable) {
		t.Fatalf("Connect() error = %v, want ErrChannelUnavailable", err)
	}
	next(t, ch.Events())
	ev := next(t, ch.Events())
	if ev.Status != domain.StatusFailed || ev.Err == nil {
		t.Errorf("event = %+v, want Failed with error", ev)
	}
	if ch.Status() != domain.StatusFailed {
		t.Errorf("Status() = %s", ch.Status())
	}
}

func TestWebSocketChannelCloseClosesEvents(t *testing.T) {
	url := terminalServer(t, func(domain.OutboundMessage) []string { return nil })
	ch := NewWebSocketChannel(url, time.Second, nil)
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch.Events():
			if !ok {
				if err := ch.Connect(context.Background()); !errors.Is(err, domain.ErrChannelUnavailable) {
					t.Errorf("Connect() after Close = %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("events channel not closed")
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.InboundMessage
	}{
		{"typed", `{"type":"command_output","output":"hi"}`, domain.InboundMessage{Type: "command_output", Output: "hi"}},
		{"raw", `{"output":"x","cwd":"/tmp"}`, domain.InboundMessage{Output: "x", Cwd: "/tmp"}},
		{"garbage", `{`, domain.InboundMessage{Error: ParseErrorMessage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Decode([]byte(tt.in))); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
