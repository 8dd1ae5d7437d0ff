package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

// stuckAfter is how long an event may sit in processing before another
// worker reclaims it.
const stuckAfter = 5 * time.Minute

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	var events []*model.OutboxEvent

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT id, event_type, payload, status, error_message, retry_count,
				created_at, processed_at, updated_at
			FROM outbox_events
			WHERE status = 'pending'
			OR (status = 'processing' AND updated_at < $2)
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`
		if err := tx.SelectContext(ctx, &events, query, limit, time.Now().Add(-stuckAfter)); err != nil {
			return fmt.Errorf("failed to select pending events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID.String()
			e.Status = model.OutboxStatusProcessing
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE outbox_events SET status = 'processing', updated_at = NOW() WHERE id = ANY($1::uuid[])`,
			pq.Array(ids))
		if err != nil {
			return fmt.Errorf("failed to claim events: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, r.observe("claim_outbox_events", err)
	}
	return events, r.observe("claim_outbox_events", nil)
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = 'processed', error_message = NULL, processed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return r.observe("mark_outbox_processed", err)
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error {
	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
			error_message = $2,
			status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END,
			updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, errMsg, maxRetries)
	return r.observe("mark_outbox_failed", err)
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = 'processed'
		AND processed_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}
