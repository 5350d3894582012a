package recon

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Outbox persists reconciliation events for the legacy mirror. The inline
// mirror write is best effort; undelivered events are the retry queue.
type Outbox struct {
	pool *pgxpool.Pool
}

// NewOutbox constructs the outbox over a pool.
func NewOutbox(pool *pgxpool.Pool) *Outbox {
	return &Outbox{pool: pool}
}

// Insert appends an event. A duplicate event ID is treated as already
// recorded, which makes enqueue safe to retry.
func (o *Outbox) Insert(ctx context.Context, e Event) error {
	query := `
		INSERT INTO recon_outbox (id, contract_id, contract_no, paid_amount, status,
			next_due_date, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := o.pool.Exec(ctx, query,
		e.ID, e.ContractID, e.ContractNo, e.PaidAmount, string(e.Status),
		tsParam(e.NextDueDate), tsParam(e.CompletedAt), e.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil
	}
	return err
}

// MarkDelivered stamps an event as applied to the mirror.
func (o *Outbox) MarkDelivered(ctx context.Context, id string) error {
	_, err := o.pool.Exec(ctx,
		`UPDATE recon_outbox SET delivered_at = NOW() WHERE id = $1 AND delivered_at IS NULL`, id)
	return err
}

// ListUndelivered returns pending events oldest first. The drain job walks
// these in order so the mirror converges on the newest state last.
func (o *Outbox) ListUndelivered(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, contract_id, contract_no, paid_amount, status,
			next_due_date, completed_at, created_at, delivered_at
		FROM recon_outbox
		WHERE delivered_at IS NULL
		ORDER BY created_at, id
		LIMIT $1`
	rows, err := o.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var nextDue, completedAt, deliveredAt pgtype.Timestamptz
		err := rows.Scan(&e.ID, &e.ContractID, &e.ContractNo, &e.PaidAmount, &e.Status,
			&nextDue, &completedAt, &e.CreatedAt, &deliveredAt)
		if err != nil {
			return nil, err
		}
		e.NextDueDate = tzPtr(nextDue)
		e.CompletedAt = tzPtr(completedAt)
		e.DeliveredAt = tzPtr(deliveredAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func tsParam(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func tzPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
