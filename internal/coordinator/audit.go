package coordinator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marian-search/marian/pkg/postgres"
)

// Auditor persists one row per sync cycle to PostgreSQL, grounded on
// internal/ingestion/publisher/publisher.go's InTx-wrapped insert pattern
// (adapted from per-document inserts to per-sync-run audit rows).
type Auditor struct {
	db *postgres.Client
}

// NewAuditor wraps db for sync-history persistence.
func NewAuditor(db *postgres.Client) *Auditor {
	return &Auditor{db: db}
}

// Record inserts one sync_history row describing the cycle that ran from
// started to finished, the tags it published, and the errors it collected.
func (a *Auditor) Record(ctx context.Context, started, finished time.Time, tags []string, syncErrors []string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}
	errorsJSON, err := json.Marshal(syncErrors)
	if err != nil {
		return fmt.Errorf("marshaling errors: %w", err)
	}

	return a.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sync_history (started_at, finished_at, tags, error_count, errors)
			 VALUES ($1, $2, $3, $4, $5)`,
			started, finished, tagsJSON, len(syncErrors), errorsJSON,
		)
		return err
	})
}
