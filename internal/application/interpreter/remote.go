package interpreter

import (
	"context"
	"fmt"
	"strings"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// FallbackMessage is shown when the terminal server cannot be reached.
const FallbackMessage = "Failed to connect to terminal server. Switching to local mode."

// Remote forwards command lines to a terminal server. Output arrives later on
// the channel's event stream.
type Remote struct {
	channel  ports.RemoteChannel
	security ports.SecurityService
	logger   ports.Logger
	metrics  ports.Metrics
}

var (
	_ ports.Interpreter = (*Remote)(nil)
	_ ports.EventSource = (*Remote)(nil)
)

// NewRemote builds a remote interpreter over an existing channel. security,
// logger and metrics are optional.
func NewRemote(channel ports.RemoteChannel, security ports.SecurityService, logger ports.Logger, metrics ports.Metrics) *Remote {
	return &Remote{channel: channel, security: security, logger: logger, metrics: metrics}
}

// Mode implements ports.Interpreter.
func (r *Remote) Mode() domain.Mode {
	return domain.ModeRemote
}

// Events exposes the channel's asynchronous messages and status changes.
func (r *Remote) Events() <-chan domain.ChannelEvent {
	return r.channel.Events()
}

// Connect opens the channel ahead of the first command.
func (r *Remote) Connect(ctx context.Context) error {
	return r.channel.Connect(ctx)
}

// Close releases the channel.
func (r *Remote) Close() error {
	return r.channel.Close()
}

// Interpret implements ports.Interpreter.
func (r *Remote) Interpret(ctx context.Context, req domain.Request) domain.Result {
	token, _ := Parse(req.Line)
	if token == "" {
		return domain.Result{}
	}
	name := strings.ToLower(token)
	if name == CmdClear {
		return domain.Result{Clear: true, Command: CmdClear}
	}

	var advisory []string
	if r.security != nil {
		risk, err := r.security.Evaluate(strings.TrimSpace(req.Line))
		if err != nil {
			r.warn("guardrail evaluation failed", map[string]interface{}{"error": err.Error()})
		} else if risk.Blocked() {
			return domain.Result{
				Output:  domain.TextOutput("remote: blocked: " + reason(risk)),
				Command: name,
				Err:     fmt.Errorf("%s: %w", token, domain.ErrCommandBlocked),
			}
		} else if risk.Level != domain.RiskSafe && risk.Level != "" {
			advisory = append(advisory, fmt.Sprintf("remote: warning (%s): %s", risk.Level, reason(risk)))
		}
	}

	if r.channel.Status() != domain.StatusConnected {
		if r.metrics != nil {
			r.metrics.ChannelReconnect()
		}
		if err := r.channel.Connect(ctx); err != nil {
			r.warn("terminal server reconnect failed", map[string]interface{}{"error": err.Error()})
			return r.fallback(name, err)
		}
	}

	msg := domain.OutboundMessage{
		Type:    domain.MessageTypeExecute,
		Command: strings.TrimSpace(req.Line),
		Cwd:     req.Cwd,
	}
	if err := r.channel.Send(ctx, msg); err != nil {
		r.warn("send to terminal server failed", map[string]interface{}{"error": err.Error()})
		return r.fallback(name, err)
	}

	out := domain.TextOutput("")
	if len(advisory) > 0 {
		out = domain.LinesOutput(advisory)
	}
	return domain.Result{Output: out, Pending: true, Command: name}
}

func (r *Remote) fallback(command string, cause error) domain.Result {
	return domain.Result{
		Output:   domain.TextOutput(FallbackMessage),
		Fallback: true,
		Command:  command,
		Err:      fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, cause),
	}
}

func (r *Remote) warn(msg string, fields map[string]interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, fields)
	}
}

func reason(risk domain.RiskAssessment) string {
	if len(risk.Reasons) == 0 {
		return string(risk.Level)
	}
	return strings.Join(risk.Reasons, "; ")
}
