package outbox

import (
	"time"
)

// OutboxMessage is an event stored in the same transaction as the order
// and published to RabbitMQ later by the outbox worker.
type OutboxMessage struct {
	ID           int64
	MessageID    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}
