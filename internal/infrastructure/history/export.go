package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/doeshing/cmdcenter/internal/ports"
)

// ExportJSONL writes every record in repo to w, one JSON object per line,
// most recent first.
func ExportJSONL(ctx context.Context, repo ports.CommandHistoryRepository, w io.Writer) (int, error) {
	records, err := repo.RecentCommands(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to read history: %w", err)
	}
	enc := json.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return i, fmt.Errorf("failed to write history record: %w", err)
		}
	}
	return len(records), nil
}
