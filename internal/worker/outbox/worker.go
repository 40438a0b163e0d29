package outbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/msalarini/store-lamayer/internal/dal/interfaces/ioutboxrepo"
	"github.com/msalarini/store-lamayer/internal/service/models/outbox"
	"github.com/spf13/viper"
)

// publisher sends a batch of messages and returns one error slot per message.
type publisher interface {
	PublishBatch(ctx context.Context, msgs []outbox.OutboxMessage) []error
}

// Worker processes messages from the outbox table.
type Worker struct {
	outboxRepo   ioutboxrepo.IOutboxRepository
	publisher    publisher
	pollInterval time.Duration
	batchSize    int
	claimLease   time.Duration
	baseBackoff  time.Duration
	now          func() time.Time
	stopCh       chan struct{}
}

// NewWorker creates a new outbox worker.
func NewWorker(outboxRepo ioutboxrepo.IOutboxRepository, publisher publisher) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	claimLease := viper.GetDuration("rabbitmq.outbox.claim_lease")
	if claimLease <= 0 {
		claimLease = 2 * time.Minute
	}

	return &Worker{
		outboxRepo:   outboxRepo,
		publisher:    publisher,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:    batchSize,
		claimLease:   claimLease,
		baseBackoff:  30 * time.Second,
		now:          time.Now,
		stopCh:       make(chan struct{}),
	}
}

// Start begins processing messages from the outbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// backoff is 30s, 60s, 120s... for retry counts 0, 1, 2...
func (w *Worker) backoff(retryCount int) time.Duration {
	return time.Duration(math.Pow(2, float64(retryCount))) * w.baseBackoff
}

func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.outboxRepo.ClaimPending(ctx, w.batchSize, w.claimLease)
	if err != nil {
		slog.Error("Failed to claim pending messages from outbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing outbox messages", "count", len(messages))

	errs := w.publisher.PublishBatch(ctx, messages)

	for i, msg := range messages {
		if errs[i] != nil {
			newRetryCount := msg.RetryCount + 1
			nextRetryAt := w.now().Add(w.backoff(msg.RetryCount))

			slog.Warn("Failed to publish message from outbox, will retry",
				"outbox_id", msg.ID,
				"message_id", msg.MessageID,
				"retry_count", newRetryCount,
				"max_retries", msg.MaxRetries,
				"next_retry", nextRetryAt,
				"error", errs[i],
			)

			if err := w.outboxRepo.ScheduleRetry(ctx, msg.ID, newRetryCount, errs[i].Error(), nextRetryAt); err != nil {
				slog.Error("Failed to update retry information", "outbox_id", msg.ID, "error", err)
			}

			continue
		}

		if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from outbox after successful publish",
				"outbox_id", msg.ID,
				"error", err,
			)
		} else {
			slog.Debug("Message published and removed from outbox", "outbox_id", msg.ID)
		}
	}
}
