package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/msalarini/store-lamayer/internal/dal/rabbitmq"
	"github.com/msalarini/store-lamayer/internal/service/models/outbox"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"
)

// channel is the part of an AMQP channel the publisher needs.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// EventsRepository publishes outbox messages to RabbitMQ.
type EventsRepository struct {
	channel channel
}

// NewEventsRepository declares the order topology and returns a publisher on it.
func NewEventsRepository(client *rabbitmq.Client, exchange, queue, routingKey string) (*EventsRepository, error) {
	if err := client.DeclareTopology(exchange, queue, routingKey); err != nil {
		return nil, err
	}

	return &EventsRepository{channel: client.Channel()}, nil
}

// Publish sends one message as a persistent delivery carrying the caller's trace context.
func (r *EventsRepository) Publish(ctx context.Context, msg outbox.OutboxMessage) error {
	headers := amqp.Table{}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers[k] = v
	}

	err := r.channel.Publish(
		msg.ExchangeName,
		msg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			Headers:      headers,
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageID,
			Timestamp:    msg.CreatedAt,
			Body:         msg.Payload,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message %s: %w", msg.MessageID, err)
	}

	return nil
}

// PublishBatch publishes messages three at a time and returns one error slot per message.
func (r *EventsRepository) PublishBatch(ctx context.Context, msgs []outbox.OutboxMessage) []error {
	batchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	errs := make([]error, len(msgs))

	var g errgroup.Group
	g.SetLimit(3)
	for i, msg := range msgs {
		g.Go(func() error {
			errs[i] = r.Publish(batchCtx, msg)
			return nil
		})
	}
	_ = g.Wait()

	return errs
}
