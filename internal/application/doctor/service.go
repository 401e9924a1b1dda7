package doctor

import (
	"context"
	"fmt"
	"time"

	configvalidator "github.com/doeshing/cmdcenter/internal/application/config"
	"github.com/doeshing/cmdcenter/internal/application/interpreter"
	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

const probeTimeout = 5 * time.Second

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider  ports.ConfigProvider
	SecurityService ports.SecurityService
	History         ports.CommandHistoryRepository
	Backend         ports.StorageBackend
	Dialer          interpreter.ChannelDialer
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := configvalidator.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("loaded %s (mode %s)", cfg.ConfigFormatVersion, cfg.Mode)))
	}

	checks = append(checks, s.guardrailCheck(cfg))
	checks = append(checks, s.historyCheck(ctx, cfg))
	checks = append(checks, s.backendCheck(ctx, cfg))
	checks = append(checks, s.remoteCheck(ctx, cfg))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) guardrailCheck(cfg domain.Config) domain.HealthCheck {
	if s.SecurityService == nil {
		return warn("Guardrail", "security service not initialized")
	}
	if _, err := s.SecurityService.Evaluate("ls"); err != nil {
		return fail("Guardrail", err.Error())
	}
	if !cfg.IsSecurityEnabled() {
		return warn("Guardrail", "rules loaded but disabled for remote commands")
	}
	return ok("Guardrail", "rules loaded")
}

func (s *Service) historyCheck(ctx context.Context, cfg domain.Config) domain.HealthCheck {
	if s.History == nil {
		return warn("History store", fmt.Sprintf("driver %s: commands are not persisted", cfg.HistoryDriver()))
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, err := s.History.RecentCommands(ctx, 1); err != nil {
		return fail("History store", err.Error())
	}
	return ok("History store", fmt.Sprintf("driver %s readable", cfg.HistoryDriver()))
}

func (s *Service) backendCheck(ctx context.Context, cfg domain.Config) domain.HealthCheck {
	if !cfg.BackendConfigured() || s.Backend == nil {
		return warn("Storage backend", "not configured; file explorer unavailable")
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.BackendTimeout())
	defer cancel()
	if err := s.Backend.Ping(ctx); err != nil {
		return fail("Storage backend", fmt.Sprintf("%s: %v", s.Backend.Name(), err))
	}
	return ok("Storage backend", fmt.Sprintf("%s reachable", s.Backend.Name()))
}

func (s *Service) remoteCheck(ctx context.Context, cfg domain.Config) domain.HealthCheck {
	if err := domain.ValidateRemoteURL(cfg.RemoteURL()); err != nil {
		return fail("Terminal server", err.Error())
	}
	if s.Dialer == nil {
		return warn("Terminal server", "no channel dialer configured")
	}
	channel, err := s.Dialer(cfg)
	if err != nil {
		return fail("Terminal server", err.Error())
	}
	defer channel.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout())
	defer cancel()
	if err := channel.Connect(ctx); err != nil {
		// Local mode does not need the server.
		if !cfg.IsRemote() {
			return warn("Terminal server", fmt.Sprintf("%s unreachable", cfg.RemoteURL()))
		}
		return fail("Terminal server", err.Error())
	}
	return ok("Terminal server", fmt.Sprintf("%s reachable", cfg.RemoteURL()))
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
