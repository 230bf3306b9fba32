package pg

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/geethamultiplex/theaterfood/internal/model"
)

func (r *Repository) WebhookEventExists(ctx context.Context, dedupeKey string) (bool, error) {
	var exists bool

	err := r.executeWithRetryConnection(ctx, func(ctx context.Context, db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM webhook_events WHERE dedupe_key = $1)`, dedupeKey).Scan(&exists)
	})

	return exists, err
}

// RecordWebhookEvent stores a processed delivery. Duplicates are ignored and
// reported with inserted == false.
func (r *Repository) RecordWebhookEvent(ctx context.Context, event model.WebhookEvent) (bool, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return false, err
	}

	var inserted bool

	err = r.executeWithRetryConnection(ctx, func(ctx context.Context, db *sql.DB) error {
		res, err := db.ExecContext(ctx, `INSERT INTO webhook_events (dedupe_key, event_type, merchant_order_id, state, payload)
			VALUES ($1, $2, $3, $4, $5::jsonb) ON CONFLICT (dedupe_key) DO NOTHING`,
			event.DedupeKey(),
			event.Name(),
			event.Payload.MerchantOrderID,
			event.Payload.State,
			string(payload),
		)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}

		inserted = affected > 0
		return nil
	})

	return inserted, err
}
