// Package storage implements the file explorer's storage backends: a
// PostgREST/Supabase REST client and a direct PostgreSQL connection. Both also
// persist command history in the command_history table.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/retry"
	"github.com/doeshing/cmdcenter/internal/ports"
)

const restPrefix = "/rest/v1/"

// RESTConfig holds REST backend settings.
type RESTConfig struct {
	BaseURL      string
	APIKey       string
	FilesTable   string
	HistoryTable string
	Timeout      time.Duration
	RetryConfig  retry.Config
}

// RESTBackend talks to a PostgREST endpoint such as Supabase.
type RESTBackend struct {
	baseURL      string
	apiKey       string
	filesTable   string
	historyTable string
	httpClient   *http.Client
	retryConfig  retry.Config
	logger       ports.Logger
	metrics      ports.Metrics
	now          func() time.Time
}

var (
	_ ports.StorageBackend           = (*RESTBackend)(nil)
	_ ports.CommandHistoryRepository = (*RESTBackend)(nil)
)

// NewRESTBackend creates a REST backend. metrics may be nil.
func NewRESTBackend(cfg RESTConfig, logger ports.Logger, metrics ports.Metrics) *RESTBackend {
	if cfg.Timeout == 0 {
		cfg.Timeout = domain.DefaultBackendTimeout
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}
	if cfg.FilesTable == "" {
		cfg.FilesTable = domain.DefaultFilesTable
	}
	if cfg.HistoryTable == "" {
		cfg.HistoryTable = domain.DefaultHistoryTable
	}
	return &RESTBackend{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		filesTable:   cfg.FilesTable,
		historyTable: cfg.HistoryTable,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Name implements ports.StorageBackend.
func (b *RESTBackend) Name() string {
	return domain.BackendDriverREST
}

// FetchEntries implements ports.StorageBackend.
func (b *RESTBackend) FetchEntries(ctx context.Context, parentPath string) ([]domain.StorageEntry, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("parent_path", "eq."+parentPath)
	query.Set("order", "created_at.asc")

	var entries []domain.StorageEntry
	if err := b.do(ctx, "fetch_entries", http.MethodGet, b.filesTable, query, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateEntry implements ports.StorageBackend.
func (b *RESTBackend) CreateEntry(ctx context.Context, entry domain.StorageEntry) (domain.StorageEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = b.now().UTC()
	}
	var created []domain.StorageEntry
	if err := b.do(ctx, "create_entry", http.MethodPost, b.filesTable, nil, []domain.StorageEntry{entry}, &created); err != nil {
		return domain.StorageEntry{}, err
	}
	if len(created) == 0 {
		return entry, nil
	}
	return created[0], nil
}

// DeleteEntry implements ports.StorageBackend.
func (b *RESTBackend) DeleteEntry(ctx context.Context, id string) error {
	query := url.Values{}
	query.Set("id", "eq."+id)
	return b.do(ctx, "delete_entry", http.MethodDelete, b.filesTable, query, nil, nil)
}

// Ping implements ports.StorageBackend.
func (b *RESTBackend) Ping(ctx context.Context) error {
	query := url.Values{}
	query.Set("select", "id")
	query.Set("limit", "1")
	var probe []json.RawMessage
	return b.do(ctx, "ping", http.MethodGet, b.filesTable, query, nil, &probe)
}

type historyRow struct {
	Command    string    `json:"command"`
	Output     string    `json:"output"`
	ExecutedAt time.Time `json:"executed_at"`
}

// RecordCommand implements ports.CommandRecorder.
func (b *RESTBackend) RecordCommand(ctx context.Context, command, output string) error {
	row := historyRow{Command: command, Output: output, ExecutedAt: b.now().UTC()}
	return b.do(ctx, "record_command", http.MethodPost, b.historyTable, nil, []historyRow{row}, nil)
}

// RecentCommands implements ports.CommandHistoryRepository.
func (b *RESTBackend) RecentCommands(ctx context.Context, limit int) ([]domain.CommandRecord, error) {
	return b.history(ctx, "recent_commands", "", limit)
}

// Search implements ports.CommandHistoryRepository.
func (b *RESTBackend) Search(ctx context.Context, term string, limit int) ([]domain.CommandRecord, error) {
	return b.history(ctx, "search_commands", term, limit)
}

// Clear implements ports.CommandHistoryRepository.
func (b *RESTBackend) Clear(ctx context.Context) error {
	query := url.Values{}
	query.Set("id", "not.is.null")
	return b.do(ctx, "clear_commands", http.MethodDelete, b.historyTable, query, nil, nil)
}

// Close implements io.Closer.
func (b *RESTBackend) Close() error {
	b.httpClient.CloseIdleConnections()
	return nil
}

func (b *RESTBackend) history(ctx context.Context, op, term string, limit int) ([]domain.CommandRecord, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "executed_at.desc")
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if term != "" {
		pattern := strconv.Quote("*" + term + "*")
		query.Set("or", "(command.ilike."+pattern+",output.ilike."+pattern+")")
	}
	var records []domain.CommandRecord
	if err := b.do(ctx, op, http.MethodGet, b.historyTable, query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// do sends one PostgREST request with retries. Reads retry on 5xx, 429 and
// transport errors. POST inserts retry only when the server cannot have
// stored the row: a refused connection or a 429.
func (b *RESTBackend) do(ctx context.Context, op, method, table string, query url.Values, body, out interface{}) error {
	if b.baseURL == "" || b.apiKey == "" {
		return domain.ErrBackendNotConfigured
	}
	endpoint := b.baseURL + restPrefix + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
	}

	idempotent := method != http.MethodPost
	err := retry.Do(ctx, b.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("apikey", b.apiKey)
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Prefer", "return=representation")
		}

		resp, err := b.httpClient.Do(req)
		if err != nil {
			if idempotent || errors.Is(err, syscall.ECONNREFUSED) {
				return retry.Retryable(err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			statusErr := fmt.Errorf("%s %s returned %d: %s", method, table, resp.StatusCode, strings.TrimSpace(string(msg)))
			if resp.StatusCode == http.StatusTooManyRequests || (idempotent && resp.StatusCode >= 500) {
				return retry.Retryable(statusErr)
			}
			return statusErr
		}

		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
		return nil
	})

	b.observe(op, err)
	return err
}

func (b *RESTBackend) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if b.logger != nil {
			b.logger.Debug("backend request failed", map[string]interface{}{"op": op, "error": err.Error()})
		}
	}
	if b.metrics != nil {
		b.metrics.BackendRequest(op, outcome)
	}
}
