package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/filesystem"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// sortableTimestamp is fixed width so executed_at orders lexically.
const sortableTimestamp = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists command history in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = filesystem.ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	store := &SQLiteStore{db: db, path: path, now: time.Now}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS command_history (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		output TEXT,
		executed_at TEXT NOT NULL
	);`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_command_history_executed_at ON command_history (executed_at);`)
	return err
}

// RecordCommand implements ports.CommandRecorder.
func (s *SQLiteStore) RecordCommand(ctx context.Context, command, output string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_history (id, command, output, executed_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(),
		command,
		output,
		s.now().UTC().Format(sortableTimestamp),
	)
	return err
}

// RecentCommands returns up to limit records, most recent first. A limit of
// zero returns everything.
func (s *SQLiteStore) RecentCommands(ctx context.Context, limit int) ([]domain.CommandRecord, error) {
	return s.query(ctx, "", limit)
}

// Search returns records whose command or output contains term.
func (s *SQLiteStore) Search(ctx context.Context, term string, limit int) ([]domain.CommandRecord, error) {
	return s.query(ctx, term, limit)
}

func (s *SQLiteStore) query(ctx context.Context, search string, limit int) ([]domain.CommandRecord, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT id, command, output, executed_at FROM command_history")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE command LIKE ? OR output LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	builder.WriteString(" ORDER BY executed_at DESC, rowid DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CommandRecord
	for rows.Next() {
		var rec domain.CommandRecord
		var output sql.NullString
		var ts string
		if err := rows.Scan(&rec.ID, &rec.Command, &output, &ts); err != nil {
			return nil, err
		}
		rec.Output = output.String
		if t, err := time.Parse(sortableTimestamp, ts); err == nil {
			rec.ExecutedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM command_history")
	return err
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ports.CommandHistoryRepository = (*SQLiteStore)(nil)
