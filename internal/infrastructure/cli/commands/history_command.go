package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/cmdcenter/internal/app"
	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/infrastructure/cli/helpers"
	"github.com/doeshing/cmdcenter/internal/infrastructure/history"
	"github.com/doeshing/cmdcenter/internal/ports"
)

var errHistoryDisabled = errors.New("history is disabled (history.driver: none)")

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded commands",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistorySearchCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryStatsCommand(container),
	)

	return historyCmd
}

func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openHistory(cmd.Context(), container)
			if err != nil {
				return err
			}
			return listHistoryEntries(cmd.Context(), cmd.OutOrStdout(), repo, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max entries to show")
	return cmd
}

func newHistorySearchCommand(container *app.Container) *cobra.Command {
	var query string
	var searchLimit int

	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search commands and their output for a keyword",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" && len(args) == 1 {
				query = args[0]
			}
			if strings.TrimSpace(query) == "" {
				return errors.New(ErrQueryRequired)
			}
			repo, err := openHistory(cmd.Context(), container)
			if err != nil {
				return err
			}
			return searchHistoryEntries(cmd.Context(), cmd.OutOrStdout(), repo, query, searchLimit)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search keyword")
	cmd.Flags().IntVar(&searchLimit, "limit", DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openHistory(cmd.Context(), container)
			if err != nil {
				return err
			}
			if err := repo.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}
}

func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path|->",
		Short: "Export history as JSONL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openHistory(cmd.Context(), container)
			if err != nil {
				return err
			}
			return exportHistory(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), repo, args[0])
		},
	}
}

func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the most used commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openHistory(cmd.Context(), container)
			if err != nil {
				return err
			}
			return showHistoryStats(cmd.Context(), cmd.OutOrStdout(), repo)
		},
	}
}

func openHistory(ctx context.Context, container *app.Container) (ports.CommandHistoryRepository, error) {
	repo, err := container.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("history store unavailable: %w", err)
	}
	if repo == nil {
		return nil, errHistoryDisabled
	}
	return repo, nil
}

// listHistoryEntries prints the most recent commands, newest first.
func listHistoryEntries(ctx context.Context, out io.Writer, repo ports.CommandHistoryRepository, limit int) error {
	records, err := repo.RecentCommands(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	for _, rec := range records {
		printRecord(out, rec)
	}
	return nil
}

func searchHistoryEntries(ctx context.Context, out io.Writer, repo ports.CommandHistoryRepository, query string, limit int) error {
	records, err := repo.Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("failed to search history: %w", err)
	}
	for _, rec := range records {
		printRecord(out, rec)
	}
	return nil
}

func printRecord(out io.Writer, rec domain.CommandRecord) {
	fmt.Fprintf(out, "%s | %s\n", humanize.Time(rec.ExecutedAt), rec.Command)
}

// exportHistory writes JSONL to path, or to out when path is "-".
func exportHistory(ctx context.Context, out, status io.Writer, repo ports.CommandHistoryRepository, path string) error {
	if path == StdoutPath {
		_, err := history.ExportJSONL(ctx, repo, out)
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}
	n, err := history.ExportJSONL(ctx, repo, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}
	fmt.Fprintf(status, "Exported %d records to %s\n", n, path)
	return nil
}

// showHistoryStats summarizes up to MaxHistoryAnalysisRecords recent commands.
func showHistoryStats(ctx context.Context, out io.Writer, repo ports.CommandHistoryRepository) error {
	records, err := repo.RecentCommands(ctx, MaxHistoryAnalysisRecords)
	if err != nil {
		return fmt.Errorf("failed to retrieve history for analysis: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	stats := helpers.AnalyzeRecords(records)
	fmt.Fprintf(out, "Entries analyzed: %d\nDistinct commands: %d\nNo output: %d\nLast command: %s\n",
		stats.Total,
		len(stats.Frequency),
		stats.Silent,
		humanize.Time(stats.Latest))

	fmt.Fprintln(out, "Top commands:")
	for _, stat := range helpers.CalculateTopCommands(stats.Frequency, TopCommandsShown) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Command, stat.Count)
	}
	return nil
}
