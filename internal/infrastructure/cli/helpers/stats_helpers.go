package helpers

import (
	"sort"
	"strings"
	"time"

	"github.com/doeshing/cmdcenter/internal/domain"
)

// CommandStatistic represents usage statistics for a command
type CommandStatistic struct {
	Command string
	Count   int
}

// RecordStatistics aggregates a slice of history records.
type RecordStatistics struct {
	Total int
	// Silent counts records that produced no output.
	Silent    int
	Frequency map[string]int
	Latest    time.Time
}

// AnalyzeRecords counts command names (the first word of each line).
func AnalyzeRecords(records []domain.CommandRecord) RecordStatistics {
	stats := RecordStatistics{Frequency: make(map[string]int)}
	for _, rec := range records {
		stats.Total++
		if strings.TrimSpace(rec.Output) == "" {
			stats.Silent++
		}
		if name := commandName(rec.Command); name != "" {
			stats.Frequency[name]++
		}
		if rec.ExecutedAt.After(stats.Latest) {
			stats.Latest = rec.ExecutedAt
		}
	}
	return stats
}

func commandName(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// CalculateTopCommands returns the top N most frequently used commands
// If limit is 0 or negative, returns all commands
func CalculateTopCommands(commandFrequency map[string]int, limit int) []CommandStatistic {
	stats := convertFrequencyMapToStatistics(commandFrequency)
	sortStatisticsByFrequency(stats)

	if shouldLimitResults(limit, len(stats)) {
		return stats[:limit]
	}
	return stats
}

func convertFrequencyMapToStatistics(frequency map[string]int) []CommandStatistic {
	stats := make([]CommandStatistic, 0, len(frequency))
	for cmd, count := range frequency {
		stats = append(stats, CommandStatistic{
			Command: cmd,
			Count:   count,
		})
	}
	return stats
}

// sortStatisticsByFrequency sorts by count (descending) then by command name (ascending)
func sortStatisticsByFrequency(stats []CommandStatistic) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Command < stats[j].Command
		}
		return stats[i].Count > stats[j].Count
	})
}

func shouldLimitResults(limit int, actualLength int) bool {
	return limit > 0 && actualLength > limit
}
