package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/phone-store-api/internal/model"
)

// AMQPPublisher writes events to the store event queue. An amqp.Channel
// is not safe for concurrent publishing, hence the mutex.
type AMQPPublisher struct {
	mu sync.Mutex
	ch *amqp.Channel
}

func NewAMQPPublisher(ch *amqp.Channel) *AMQPPublisher {
	return &AMQPPublisher{ch: ch}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event model.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, "", EventQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         event.Type,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
