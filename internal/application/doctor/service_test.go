package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

type stubConfig struct {
	cfg domain.Config
	err error
}

func (s stubConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

type stubSecurity struct{}

func (stubSecurity) Evaluate(string) (domain.RiskAssessment, error) {
	return domain.RiskAssessment{Level: domain.RiskSafe, Action: domain.ActionAllow}, nil
}

type stubHistory struct{ err error }

func (s stubHistory) RecordCommand(context.Context, string, string) error { return nil }
func (s stubHistory) RecentCommands(context.Context, int) ([]domain.CommandRecord, error) {
	return nil, s.err
}
func (s stubHistory) Search(context.Context, string, int) ([]domain.CommandRecord, error) {
	return nil, nil
}
func (s stubHistory) Clear(context.Context) error { return nil }

type stubBackend struct{ err error }

func (s stubBackend) Name() string { return "rest" }
func (s stubBackend) FetchEntries(context.Context, string) ([]domain.StorageEntry, error) {
	return nil, nil
}
func (s stubBackend) CreateEntry(_ context.Context, e domain.StorageEntry) (domain.StorageEntry, error) {
	return e, nil
}
func (s stubBackend) DeleteEntry(context.Context, string) error { return nil }
func (s stubBackend) Ping(context.Context) error                { return s.err }

type stubChannel struct{ err error }

func (s stubChannel) Connect(context.Context) error                      { return s.err }
func (s stubChannel) Send(context.Context, domain.OutboundMessage) error { return nil }
func (s stubChannel) Status() domain.ConnectionStatus                    { return domain.StatusDisconnected }
func (s stubChannel) Events() <-chan domain.ChannelEvent                 { return nil }
func (s stubChannel) Close() error                                       { return nil }

func dialer(err error) func(domain.Config) (ports.RemoteChannel, error) {
	return func(domain.Config) (ports.RemoteChannel, error) { return stubChannel{err: err}, nil }
}

func statuses(report domain.HealthReport) map[string]domain.HealthStatus {
	out := map[string]domain.HealthStatus{}
	for _, check := range report.Checks {
		out[check.Name] = check.Status
	}
	return out
}

func TestDoctorRun(t *testing.T) {
	configured := domain.Config{
		ConfigFormatVersion: "1",
		Mode:                domain.ModeRemote,
		Backend:             domain.BackendSettings{URL: "https://x.supabase.co", APIKey: "k"},
		Security:            domain.SecuritySettings{Enabled: true},
	}
	unreachable := errors.New("connection refused")

	tests := []struct {
		name    string
		service Service
		want    map[string]domain.HealthStatus
	}{
		{
			name: "healthy remote setup",
			service: Service{
				ConfigProvider:  stubConfig{cfg: configured},
				SecurityService: stubSecurity{},
				History:         stubHistory{},
				Backend:         stubBackend{},
				Dialer:          dialer(nil),
			},
			want: map[string]domain.HealthStatus{
				"Config file":     domain.HealthOK,
				"Guardrail":       domain.HealthOK,
				"History store":   domain.HealthOK,
				"Storage backend": domain.HealthOK,
				"Terminal server": domain.HealthOK,
			},
		},
		{
			name: "local mode without backend",
			service: Service{
				ConfigProvider:  stubConfig{cfg: domain.Config{Mode: domain.ModeLocal}},
				SecurityService: stubSecurity{},
				Dialer:          dialer(unreachable),
			},
			want: map[string]domain.HealthStatus{
				"Config file":     domain.HealthOK,
				"Guardrail":       domain.HealthWarn,
				"History store":   domain.HealthWarn,
				"Storage backend": domain.HealthWarn,
				"Terminal server": domain.HealthWarn,
			},
		},
		{
			name: "remote failures",
			service: Service{
				ConfigProvider:  stubConfig{cfg: configured},
				SecurityService: stubSecurity{},
				History:         stubHistory{err: errors.New("locked")},
				Backend:         stubBackend{err: unreachable},
				Dialer:          dialer(unreachable),
			},
			want: map[string]domain.HealthStatus{
				"Config file":     domain.HealthOK,
				"Guardrail":       domain.HealthOK,
				"History store":   domain.HealthError,
				"Storage backend": domain.HealthError,
				"Terminal server": domain.HealthError,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := tt.service.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, statuses(report)); diff != "" {
				t.Errorf("statuses mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDoctorConfigLoadFailure(t *testing.T) {
	svc := Service{ConfigProvider: stubConfig{err: errors.New("bad yaml")}}
	report, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !report.Failed() || len(report.Checks) != 1 {
		t.Errorf("report = %+v", report)
	}
}
