package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/msalarini/store-lamayer/internal/dal/postgres"
	"github.com/msalarini/store-lamayer/internal/service/models/outbox"
)

var messageColumns = []string{
	"id",
	"message_id",
	"exchange_name",
	"routing_key",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

// OutboxRepository keeps order events until the worker has published them.
type OutboxRepository struct {
	conn postgres.GenericConn
}

// NewOutboxRepository creates an outbox repository. conn may be the pool or a transaction;
// CreateOrder writes through the transaction so the event commits with the order.
func NewOutboxRepository(conn postgres.GenericConn) *OutboxRepository {
	return &OutboxRepository{conn: conn}
}

func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	insert := sq.Insert("outbox").
		SetMap(map[string]any{
			"message_id":    msg.MessageID,
			"exchange_name": msg.ExchangeName,
			"routing_key":   msg.RoutingKey,
			"payload":       msg.Payload,
			"content_type":  msg.ContentType,
			"retry_count":   msg.RetryCount,
			"max_retries":   msg.MaxRetries,
			"last_error":    msg.LastError,
			"next_retry_at": msg.NextRetryAt,
		}).
		PlaceholderFormat(sq.Dollar)

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build outbox insert: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert outbox message %s: %w", msg.MessageID, err)
	}

	return nil
}

// ClaimPending leases up to limit due messages that still have retries left.
// Claimed rows get next_retry_at pushed by lease, so a second worker polling
// the same table skips them; rows locked by a concurrent claim are skipped too.
// A claimed message that is neither deleted nor rescheduled becomes due again
// once the lease runs out.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]outbox.OutboxMessage, error) {
	due := sq.Select("id").
		From("outbox").
		Where("next_retry_at <= now()").
		Where("retry_count < max_retries").
		OrderBy("next_retry_at").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED")

	claim := sq.Update("outbox").
		Set("next_retry_at", sq.Expr("now() + make_interval(secs => ?)", lease.Seconds())).
		Where(sq.Expr("id IN (?)", due)).
		Suffix("RETURNING " + strings.Join(messageColumns, ", ")).
		PlaceholderFormat(sq.Dollar)

	query, args, err := claim.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build outbox claim: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to read claimed outbox messages: %w", err)
	}

	return messages, nil
}

func scanMessage(row pgx.CollectableRow) (outbox.OutboxMessage, error) {
	var msg outbox.OutboxMessage
	err := row.Scan(
		&msg.ID,
		&msg.MessageID,
		&msg.ExchangeName,
		&msg.RoutingKey,
		&msg.Payload,
		&msg.ContentType,
		&msg.RetryCount,
		&msg.MaxRetries,
		&msg.LastError,
		&msg.CreatedAt,
		&msg.UpdatedAt,
		&msg.NextRetryAt,
	)

	return msg, err
}

// Delete drops a published message.
func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete("outbox").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build outbox delete: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete outbox message %d: %w", id, err)
	}

	return nil
}

// ScheduleRetry records a failed publish and replaces the claim lease with
// the backoff deadline.
func (r *OutboxRepository) ScheduleRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	query, args, err := sq.Update("outbox").
		SetMap(map[string]any{
			"retry_count":   retryCount,
			"last_error":    lastError,
			"next_retry_at": nextRetryAt,
			"updated_at":    sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build outbox retry update: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reschedule outbox message %d: %w", id, err)
	}

	return nil
}
