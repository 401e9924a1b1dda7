package interpreter

import (
	"fmt"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// ChannelDialer builds an unconnected remote channel for the given settings.
type ChannelDialer func(domain.Config) (ports.RemoteChannel, error)

// Factory selects the interpreter implementation from configuration.
type Factory struct {
	Tree     *domain.Node
	Clock    ports.Clock
	Dialer   ChannelDialer
	Security ports.SecurityService
	Logger   ports.Logger
	Metrics  ports.Metrics
}

var _ ports.InterpreterFactory = (*Factory)(nil)

// ForConfig implements ports.InterpreterFactory.
func (f *Factory) ForConfig(cfg domain.Config) (ports.Interpreter, error) {
	if !cfg.IsRemote() {
		return NewLocal(f.Tree, f.Clock), nil
	}
	if f.Dialer == nil {
		return nil, fmt.Errorf("remote mode requires a channel dialer")
	}
	if err := domain.ValidateRemoteURL(cfg.RemoteURL()); err != nil {
		return nil, err
	}
	channel, err := f.Dialer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote channel: %w", err)
	}
	var security ports.SecurityService
	if cfg.IsSecurityEnabled() {
		security = f.Security
	}
	return NewRemote(channel, security, f.Logger, f.Metrics), nil
}
