package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/flicky/phone-store-api/internal/model"
)

// Publisher hands domain events to the background worker.
type Publisher interface {
	Publish(ctx context.Context, event model.Event) error
}

func newEvent(eventType string, orderID, customerID uuid.UUID, reference string) model.Event {
	return model.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID,
		CustomerID: customerID,
		Reference:  reference,
	}
}
