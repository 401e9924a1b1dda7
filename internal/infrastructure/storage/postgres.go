package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresBackend stores explorer entries and command history directly in
// PostgreSQL, using the same tables a hosted Supabase project exposes.
type PostgresBackend struct {
	db           *sql.DB
	filesTable   string
	historyTable string
	metrics      ports.Metrics
	now          func() time.Time
}

var (
	_ ports.StorageBackend           = (*PostgresBackend)(nil)
	_ ports.CommandHistoryRepository = (*PostgresBackend)(nil)
)

// NewPostgresBackend opens a connection pool and verifies it is reachable.
func NewPostgresBackend(ctx context.Context, dsn, filesTable, historyTable string, metrics ports.Metrics) (*PostgresBackend, error) {
	files, err := quoteTable(filesTable)
	if err != nil {
		return nil, err
	}
	history, err := quoteTable(historyTable)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresBackend{
		db:           db,
		filesTable:   files,
		historyTable: history,
		metrics:      metrics,
		now:          time.Now,
	}, nil
}

func quoteTable(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return pq.QuoteIdentifier(name), nil
}

// Migrate creates the files and history tables when they do not exist.
func (p *PostgresBackend) Migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('file', 'dir')),
			content TEXT,
			parent_path TEXT NOT NULL,
			path TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, p.filesTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			output TEXT NOT NULL DEFAULT '',
			executed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, p.historyTable),
	}
	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Name implements ports.StorageBackend.
func (p *PostgresBackend) Name() string {
	return domain.BackendDriverPostgres
}

// FetchEntries implements ports.StorageBackend.
func (p *PostgresBackend) FetchEntries(ctx context.Context, parentPath string) (entries []domain.StorageEntry, err error) {
	defer func() { p.observe("fetch_entries", err) }()

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, name, type, COALESCE(content, ''), parent_path, path, created_at
		 FROM %s WHERE parent_path = $1 ORDER BY created_at, name`, p.filesTable), parentPath)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.StorageEntry
		var typ string
		if err := rows.Scan(&e.ID, &e.Name, &typ, &e.Content, &e.ParentPath, &e.Path, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Type = domain.EntryType(typ)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateEntry implements ports.StorageBackend.
func (p *PostgresBackend) CreateEntry(ctx context.Context, entry domain.StorageEntry) (_ domain.StorageEntry, err error) {
	defer func() { p.observe("create_entry", err) }()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = p.now().UTC()
	}
	_, err = p.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, name, type, content, parent_path, path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`, p.filesTable),
		entry.ID, entry.Name, string(entry.Type), entry.Content, entry.ParentPath, entry.Path, entry.CreatedAt)
	if err != nil {
		return domain.StorageEntry{}, fmt.Errorf("insert entry: %w", err)
	}
	return entry, nil
}

// DeleteEntry implements ports.StorageBackend.
func (p *PostgresBackend) DeleteEntry(ctx context.Context, id string) (err error) {
	defer func() { p.observe("delete_entry", err) }()

	res, err := p.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, p.filesTable), id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s: %w", id, domain.ErrPathNotFound)
	}
	return nil
}

// Ping implements ports.StorageBackend.
func (p *PostgresBackend) Ping(ctx context.Context) (err error) {
	defer func() { p.observe("ping", err) }()
	return p.db.PingContext(ctx)
}

// RecordCommand implements ports.CommandRecorder.
func (p *PostgresBackend) RecordCommand(ctx context.Context, command, output string) (err error) {
	defer func() { p.observe("record_command", err) }()

	_, err = p.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, command, output, executed_at) VALUES ($1, $2, $3, $4)`, p.historyTable),
		uuid.NewString(), command, output, p.now().UTC())
	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}
	return nil
}

// RecentCommands implements ports.CommandHistoryRepository.
func (p *PostgresBackend) RecentCommands(ctx context.Context, limit int) (records []domain.CommandRecord, err error) {
	defer func() { p.observe("recent_commands", err) }()
	return p.queryHistory(ctx, `SELECT id, command, output, executed_at FROM %s ORDER BY executed_at DESC`, limit)
}

// Search implements ports.CommandHistoryRepository.
func (p *PostgresBackend) Search(ctx context.Context, term string, limit int) (records []domain.CommandRecord, err error) {
	defer func() { p.observe("search_commands", err) }()
	return p.queryHistory(ctx,
		`SELECT id, command, output, executed_at FROM %s
		 WHERE command ILIKE '%%' || $1 || '%%' OR output ILIKE '%%' || $1 || '%%'
		 ORDER BY executed_at DESC`, limit, term)
}

// Clear implements ports.CommandHistoryRepository.
func (p *PostgresBackend) Clear(ctx context.Context) (err error) {
	defer func() { p.observe("clear_commands", err) }()
	if _, err = p.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, p.historyTable)); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *PostgresBackend) Close() error {
	return p.db.Close()
}

func (p *PostgresBackend) queryHistory(ctx context.Context, query string, limit int, args ...interface{}) ([]domain.CommandRecord, error) {
	stmt := fmt.Sprintf(query, p.historyTable)
	if limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := p.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []domain.CommandRecord
	for rows.Next() {
		var rec domain.CommandRecord
		if err := rows.Scan(&rec.ID, &rec.Command, &rec.Output, &rec.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (p *PostgresBackend) observe(op string, err error) {
	if p.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.BackendRequest(op, outcome)
}
