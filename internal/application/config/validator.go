package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/doeshing/cmdcenter/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	switch cfg.Mode {
	case domain.ModeLocal, domain.ModeRemote, "":
	default:
		return fmt.Errorf("mode must be local|remote, got %s", cfg.Mode)
	}
	if err := validateRemote(cfg); err != nil {
		return err
	}
	if err := validateBackend(cfg.Backend); err != nil {
		return err
	}
	if err := validateHistory(cfg); err != nil {
		return err
	}
	if err := validateCache(cfg.Cache); err != nil {
		return err
	}
	if err := validateSecurity(cfg.Security); err != nil {
		return err
	}
	return validateLogging(cfg.Logging)
}

func validateRemote(cfg domain.Config) error {
	if cfg.Remote.URL == "" && !cfg.IsRemote() {
		return nil
	}
	if err := domain.ValidateRemoteURL(cfg.RemoteURL()); err != nil {
		return fmt.Errorf("remote.url invalid: %w", err)
	}
	if cfg.Remote.HandshakeTimeoutSeconds < 0 {
		return fmt.Errorf("remote.handshake_timeout must be >= 0")
	}
	return nil
}

func validateBackend(backend domain.BackendSettings) error {
	switch strings.ToLower(backend.Driver) {
	case "", domain.BackendDriverREST:
		if backend.URL == "" {
			return nil
		}
		parsed, err := url.Parse(backend.URL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("backend.url must be an http(s) URL, got %q", backend.URL)
		}
	case domain.BackendDriverPostgres:
	default:
		return fmt.Errorf("backend.driver must be rest|postgres, got %s", backend.Driver)
	}
	if backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout must be >= 0")
	}
	return nil
}

func validateHistory(cfg domain.Config) error {
	switch strings.ToLower(cfg.History.Driver) {
	case "", domain.HistoryDriverSQLite, domain.HistoryDriverFile, domain.HistoryDriverNone:
	case domain.HistoryDriverBackend:
		if !cfg.BackendConfigured() {
			return fmt.Errorf("history.driver backend requires a configured backend")
		}
	default:
		return fmt.Errorf("history.driver must be sqlite|file|backend|none, got %s", cfg.History.Driver)
	}
	if cfg.History.SeedLimit < 0 {
		return fmt.Errorf("history.seed_limit must be >= 0")
	}
	return nil
}

func validateCache(cache domain.CacheSettings) error {
	if cache.TTL == "" {
		cache.TTL = "1h"
	}
	if _, err := time.ParseDuration(cache.TTL); err != nil {
		return fmt.Errorf("cache.ttl invalid: %w", err)
	}
	if cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be >= 0")
	}
	return nil
}

func validateSecurity(sec domain.SecuritySettings) error {
	if sec.Enabled && sec.RulesFile == "" {
		return fmt.Errorf("security.rules_file must be set")
	}
	return nil
}

func validateLogging(logging domain.LoggingSettings) error {
	if logging.Level == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(logging.Level)); err != nil {
		return fmt.Errorf("logging.level invalid: %w", err)
	}
	return nil
}
