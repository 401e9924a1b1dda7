package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/filesystem"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// FileStore appends history records to a jsonl file.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore creates a history store backed by the jsonl file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: filesystem.ExpandHome(path), now: time.Now}
}

// RecordCommand implements ports.CommandRecorder.
func (f *FileStore) RecordCommand(_ context.Context, command, output string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(domain.CommandRecord{
		ID:         uuid.NewString(),
		Command:    command,
		Output:     output,
		ExecutedAt: f.now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

// RecentCommands returns up to limit records, most recent first.
func (f *FileStore) RecentCommands(_ context.Context, limit int) ([]domain.CommandRecord, error) {
	records, err := f.records()
	if err != nil {
		return nil, err
	}
	return truncate(records, limit), nil
}

// Search returns records whose command or output contains term.
func (f *FileStore) Search(_ context.Context, term string, limit int) ([]domain.CommandRecord, error) {
	records, err := f.records()
	if err != nil {
		return nil, err
	}
	var matched []domain.CommandRecord
	for _, rec := range records {
		if strings.Contains(rec.Command, term) || strings.Contains(rec.Output, term) {
			matched = append(matched, rec)
		}
	}
	return truncate(matched, limit), nil
}

// Clear removes the history file.
func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// records loads all entries newest first, skipping lines that do not decode.
func (f *FileStore) records() ([]domain.CommandRecord, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var records []domain.CommandRecord
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec domain.CommandRecord
		if err := json.Unmarshal(line, &rec); err == nil {
			records = append(records, rec)
		}
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ExecutedAt.After(records[j].ExecutedAt)
	})
	return records, nil
}

func truncate(records []domain.CommandRecord, limit int) []domain.CommandRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

var _ ports.CommandHistoryRepository = (*FileStore)(nil)
