package ioutboxrepo

import (
	"context"
	"time"

	"github.com/msalarini/store-lamayer/internal/service/models/outbox"
)

// IOutboxRepository stores events waiting to be published.
type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.OutboxMessage) error

	// ClaimPending leases up to limit due messages with retries left. Claimed
	// messages are hidden from other claims until lease expires.
	ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]outbox.OutboxMessage, error)

	Delete(ctx context.Context, id int64) error

	// ScheduleRetry records a failed publish attempt.
	ScheduleRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error
}
