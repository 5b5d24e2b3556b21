package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/phone-store-api/internal/model"
)

const (
	EventQueueName = "store.events"
	dlxExchange    = "store.events.dlx"
	dlqQueueName   = "store.events.dlq"
	idempotencyTTL = 24 * time.Hour
)

var errUnknownEvent = errors.New("unknown event type")

type PaymentCompleter interface {
	CompletePayment(ctx context.Context, orderID uuid.UUID) error
}

// LoyaltyAwarder credits an order at most once; a repeat returns 0 points.
type LoyaltyAwarder interface {
	AwardForOrder(ctx context.Context, orderID, customerID uuid.UUID, total decimal.Decimal) (int, error)
}

type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

// Deduper remembers which events have already been applied.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type redisDeduper struct{ client *redis.Client }

func NewRedisDeduper(client *redis.Client) Deduper { return &redisDeduper{client: client} }

func dedupeKey(eventID string) string { return "event_processed:" + eventID }

func (d *redisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupeKey(eventID)).Result()
	return n > 0, err
}

func (d *redisDeduper) Mark(ctx context.Context, eventID string) error {
	return d.client.Set(ctx, dedupeKey(eventID), "1", idempotencyTTL).Err()
}

type EventWorker struct {
	channel  *amqp.Channel
	payments PaymentCompleter
	loyalty  LoyaltyAwarder
	orders   OrderReader
	deduper  Deduper
	log      *slog.Logger
	done     chan struct{}
}

func NewEventWorker(
	ch *amqp.Channel,
	payments PaymentCompleter,
	loyalty LoyaltyAwarder,
	orders OrderReader,
	deduper Deduper,
	log *slog.Logger,
) *EventWorker {
	return &EventWorker{
		channel:  ch,
		payments: payments,
		loyalty:  loyalty,
		orders:   orders,
		deduper:  deduper,
		log:      log,
		done:     make(chan struct{}),
	}
}

// SetupRabbitMQ declares the event queue and its dead-letter pair.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, EventQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(EventQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": EventQueueName,
	}); err != nil {
		return fmt.Errorf("declare event queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *EventWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(EventQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("event worker started", "queue", EventQueueName)
	return nil
}

func (w *EventWorker) Stop() { close(w.done) }

func (w *EventWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.ID == "" {
		w.log.Error("unmarshal event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("event_id", event.ID, "type", event.Type, "order_id", event.OrderID)

	seen, err := w.deduper.Seen(ctx, event.ID)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("event already processed, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.handle(ctx, event); err != nil {
		log.Error("process event failed", "error", err)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	if err := w.deduper.Mark(ctx, event.ID); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("event processed")
}

func (w *EventWorker) handle(ctx context.Context, event model.Event) error {
	switch event.Type {
	case model.EventPaymentCompleted:
		return w.payments.CompletePayment(ctx, event.OrderID)
	case model.EventOrderDelivered:
		return w.awardLoyalty(ctx, event)
	default:
		return fmt.Errorf("%w: %q", errUnknownEvent, event.Type)
	}
}

func (w *EventWorker) awardLoyalty(ctx context.Context, event model.Event) error {
	order, err := w.orders.GetByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", event.OrderID)
	}
	if order.Status != model.OrderStatusDelivered {
		w.log.Warn("order no longer delivered, skipping loyalty award", "order_id", order.ID, "status", order.Status)
		return nil
	}
	points, err := w.loyalty.AwardForOrder(ctx, order.ID, order.CustomerID, order.Total)
	if err != nil {
		return err
	}
	if points == 0 {
		w.log.Info("no loyalty points to award", "order_id", order.ID)
		return nil
	}
	w.log.Info("loyalty points awarded", "order_id", order.ID, "customer_id", order.CustomerID, "points", points)
	return nil
}
