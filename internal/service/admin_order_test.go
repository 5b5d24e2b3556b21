package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
)

type mockPublisher struct {
	events    []model.Event
	err       error
	onPublish func(model.Event)
}

func (m *mockPublisher) Publish(_ context.Context, e model.Event) error {
	if m.onPublish != nil {
		m.onPublish(e)
	}
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

// trackingTxm reports whether a transaction is still open.
type trackingTxm struct {
	active bool
}

func (m *trackingTxm) WithTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	m.active = true
	defer func() { m.active = false }()
	return fn(nil)
}

func placedOrder(t *testing.T, f *orderFixture, qty int) uuid.UUID {
	t.Helper()
	f.fillCart(qty)
	resp, err := f.svc.PlaceOrder(context.Background(), f.customer, f.request("cod", ""), "")
	require.NoError(t, err)
	return resp.OrderID
}

func TestAdminOrderService_UpdateOrderStatus(t *testing.T) {
	f := newOrderFixture(false)
	pub := &mockPublisher{}
	svc := NewAdminOrderService(mockTxm{}, f.orders, f.catalog, f.cache, pub)
	id := placedOrder(t, f, 1)

	require.NoError(t, svc.UpdateOrderStatus(context.Background(), id, "dispatched"))
	assert.Equal(t, model.OrderStatusDispatched, f.orders.orders[id].Status)
	assert.Empty(t, pub.events)

	// going backwards is allowed
	require.NoError(t, svc.UpdateOrderStatus(context.Background(), id, "pending"))
	assert.Equal(t, model.OrderStatusPending, f.orders.orders[id].Status)

	require.NoError(t, svc.UpdateOrderStatus(context.Background(), id, "delivered"))
	require.Len(t, pub.events, 1)
	assert.Equal(t, model.EventOrderDelivered, pub.events[0].Type)
	assert.Equal(t, id, pub.events[0].OrderID)
	assert.Equal(t, f.customer, pub.events[0].CustomerID)

	assert.ErrorIs(t, svc.UpdateOrderStatus(context.Background(), id, "cancelled"), ErrUseCancelEndpoint)
	assert.ErrorIs(t, svc.UpdateOrderStatus(context.Background(), id, "lost"), ErrInvalidStatus)
	assert.ErrorIs(t, svc.UpdateOrderStatus(context.Background(), uuid.New(), "processing"), ErrOrderNotFound)
}

func TestAdminOrderService_UpdateOrderStatus_PublishesAfterCommit(t *testing.T) {
	f := newOrderFixture(false)
	txm := &trackingTxm{}
	id := placedOrder(t, f, 1)

	var published bool
	pub := &mockPublisher{onPublish: func(e model.Event) {
		published = true
		assert.False(t, txm.active, "event queued before the status update committed")
		assert.Equal(t, model.OrderStatusDelivered, f.orders.orders[e.OrderID].Status)
	}}
	svc := NewAdminOrderService(txm, f.orders, f.catalog, f.cache, pub)

	require.NoError(t, svc.UpdateOrderStatus(context.Background(), id, "delivered"))
	assert.True(t, published)
}

func TestAdminOrderService_UpdateOrderStatus_PublishFailure(t *testing.T) {
	f := newOrderFixture(false)
	pub := &mockPublisher{err: errors.New("channel closed")}
	svc := NewAdminOrderService(mockTxm{}, f.orders, f.catalog, f.cache, pub)
	id := placedOrder(t, f, 1)

	assert.Error(t, svc.UpdateOrderStatus(context.Background(), id, "delivered"))
	assert.Equal(t, model.OrderStatusDelivered, f.orders.orders[id].Status)

	// repeating the update retries the publish
	pub.err = nil
	require.NoError(t, svc.UpdateOrderStatus(context.Background(), id, "delivered"))
	assert.Len(t, pub.events, 1)
}

func TestAdminOrderService_RedeliveredOrderAwardsOnce(t *testing.T) {
	f := newOrderFixture(false)
	pub := &mockPublisher{}
	svc := NewAdminOrderService(mockTxm{}, f.orders, f.catalog, f.cache, pub)
	loyalty := NewLoyaltyService(mockTxm{}, f.loyalty, testLoyaltyRules)
	id := placedOrder(t, f, 2)

	for _, status := range []string{"delivered", "dispatched", "delivered"} {
		require.NoError(t, svc.UpdateOrderStatus(context.Background(), id, status))
	}
	require.Len(t, pub.events, 2)

	total := f.orders.orders[id].Total
	for _, e := range pub.events {
		_, err := loyalty.AwardForOrder(context.Background(), e.OrderID, e.CustomerID, total)
		require.NoError(t, err)
	}
	assert.Equal(t, 21, f.loyalty.programs[f.customer].TotalPoints)
}

func TestAdminOrderService_CancelOrder(t *testing.T) {
	f := newOrderFixture(false)
	svc := NewAdminOrderService(mockTxm{}, f.orders, f.catalog, f.cache, nil)
	staff := uuid.New()

	id := placedOrder(t, f, 2)
	f.cache.invalidated = nil
	require.NoError(t, svc.CancelOrder(context.Background(), id, "out of area", staff))
	assert.Equal(t, 5, f.catalog.items[f.phone.ID].Stock)
	assert.Equal(t, []uuid.UUID{f.phone.ID}, f.cache.invalidated)
	assert.Equal(t, model.ActorStaff, f.orders.cancellations[0].UserType)
	assert.Equal(t, staff, f.orders.cancellations[0].ActorID)

	dispatched := placedOrder(t, f, 1)
	require.NoError(t, svc.UpdateOrderStatus(context.Background(), dispatched, "dispatched"))
	assert.ErrorIs(t, svc.CancelOrder(context.Background(), dispatched, "late", staff), ErrOrderNotCancellable)
	assert.Equal(t, 4, f.catalog.items[f.phone.ID].Stock)

	assert.ErrorIs(t, svc.CancelOrder(context.Background(), uuid.New(), "x", staff), ErrOrderNotFound)
	assert.ErrorIs(t, svc.CancelOrder(context.Background(), dispatched, " ", staff), ErrMissingFields)
}

func TestAdminOrderService_UpdatePaymentStatus(t *testing.T) {
	f := newOrderFixture(false)
	svc := NewAdminOrderService(mockTxm{}, f.orders, f.catalog, f.cache, nil)
	id := placedOrder(t, f, 1)

	require.NoError(t, svc.UpdatePaymentStatus(context.Background(), id, "failed"))
	assert.Nil(t, f.orders.orders[id].Payment.PaymentDate)

	require.NoError(t, svc.UpdatePaymentStatus(context.Background(), id, "completed"))
	assert.NotNil(t, f.orders.orders[id].Payment.PaymentDate)

	assert.ErrorIs(t, svc.UpdatePaymentStatus(context.Background(), uuid.New(), "completed"), ErrOrderNotFound)
	assert.ErrorIs(t, svc.UpdatePaymentStatus(context.Background(), id, "paid"), ErrInvalidStatus)
}

func TestAdminOrderService_CompletePayment(t *testing.T) {
	f := newOrderFixture(false)
	svc := NewAdminOrderService(mockTxm{}, f.orders, f.catalog, f.cache, nil)
	id := placedOrder(t, f, 1)

	require.NoError(t, svc.CompletePayment(context.Background(), id))
	assert.Equal(t, model.OrderStatusProcessing, f.orders.orders[id].Status)
	assert.Equal(t, model.PaymentStatusCompleted, f.orders.orders[id].Payment.Status)
}

func TestAdminOrderService_ListOrders(t *testing.T) {
	f := newOrderFixture(false)
	svc := NewAdminOrderService(mockTxm{}, f.orders, f.catalog, f.cache, nil)
	placedOrder(t, f, 1)
	second := placedOrder(t, f, 1)
	require.NoError(t, svc.UpdateOrderStatus(context.Background(), second, "processing"))

	all, err := svc.ListOrders(context.Background(), dto.ListOrdersRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	processing, err := svc.ListOrders(context.Background(), dto.ListOrdersRequest{Status: "processing"})
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, second, processing[0].ID)

	none, err := svc.ListOrders(context.Background(), dto.ListOrdersRequest{District: "Kandy"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
