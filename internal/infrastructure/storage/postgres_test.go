package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/doeshing/cmdcenter/internal/domain"
)

func TestQuoteTable(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "files", want: `"files"`},
		{name: "command_history", want: `"command_history"`},
		{name: "files; DROP TABLE x", wantErr: true},
		{name: "", wantErr: true},
		{name: "1files", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := quoteTable(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("quoteTable(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("quoteTable(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestNewRequiresConfiguredBackend(t *testing.T) {
	cfg := domain.Config{Backend: domain.BackendSettings{Driver: "postgres"}}
	if _, err := New(context.Background(), cfg, nil, nil); err != domain.ErrBackendNotConfigured {
		t.Errorf("New() error = %v, want ErrBackendNotConfigured", err)
	}

	cfg = domain.Config{Backend: domain.BackendSettings{URL: "https://x.supabase.co", APIKey: "k"}}
	backend, err := New(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if backend.Name() != domain.BackendDriverREST {
		t.Errorf("Name() = %s", backend.Name())
	}
}

// TestPostgresBackend runs against a live database when
// CMDCENTER_TEST_DATABASE_URL is set.
func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("CMDCENTER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CMDCENTER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	backend, err := NewPostgresBackend(ctx, dsn, "cmdcenter_test_files", "cmdcenter_test_history", nil)
	if err != nil {
		t.Fatalf("NewPostgresBackend() error: %v", err)
	}
	defer backend.Close()
	if err := backend.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		backend.db.Exec(`DROP TABLE IF EXISTS cmdcenter_test_files`)
		backend.db.Exec(`DROP TABLE IF EXISTS cmdcenter_test_history`)
	})

	entry, err := backend.CreateEntry(ctx, domain.NewStorageEntry("/home/user", "notes.txt", domain.EntryFile, "hi"))
	if err != nil {
		t.Fatalf("CreateEntry() error: %v", err)
	}
	entries, err := backend.FetchEntries(ctx, "/home/user")
	if err != nil || len(entries) != 1 || entries[0].Name != "notes.txt" {
		t.Fatalf("FetchEntries() = %+v, %v", entries, err)
	}
	if err := backend.DeleteEntry(ctx, entry.ID); err != nil {
		t.Fatalf("DeleteEntry() error: %v", err)
	}
	if err := backend.DeleteEntry(ctx, entry.ID); err == nil {
		t.Error("second DeleteEntry() should fail")
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, cmd := range []string{"pwd", "ls docs"} {
		at := base.Add(time.Duration(i) * time.Minute)
		backend.now = func() time.Time { return at }
		if err := backend.RecordCommand(ctx, cmd, ""); err != nil {
			t.Fatalf("RecordCommand() error: %v", err)
		}
	}
	records, err := backend.RecentCommands(ctx, 10)
	if err != nil || len(records) != 2 || records[0].Command != "ls docs" {
		t.Fatalf("RecentCommands() = %+v, %v", records, err)
	}
	found, err := backend.Search(ctx, "DOCS", 10)
	if err != nil || len(found) != 1 {
		t.Fatalf("Search() = %+v, %v", found, err)
	}
	if err := backend.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
}
