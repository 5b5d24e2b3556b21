package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/phone-store-api/internal/model"
)

var allTables = []string{
	"loyalty_awards", "coupon_usages", "cancellations", "payments", "deliverings", "order_items", "orders",
	"cart_items", "repairs", "repair_requests", "loyalty_programs", "coupon_codes",
	"items", "categories", "customers", "staff",
}

func createCustomer(t *testing.T, email string) *model.Customer {
	t.Helper()
	c := &model.Customer{Name: "Nimal", Email: email, Password: "hashed", Phone: "0771234567"}
	require.NoError(t, NewCustomerRepository(testPool).Create(context.Background(), nil, c))
	return c
}

func createItem(t *testing.T, catType string, stock int) *model.Item {
	t.Helper()
	ctx := context.Background()
	categoryID := uuid.New()
	_, err := testPool.Exec(ctx, `INSERT INTO categories (id, name, type) VALUES ($1, $2, $3)`,
		categoryID, catType+" category", catType)
	require.NoError(t, err)

	item := &model.Item{
		Name: "Galaxy A55", Brand: "Samsung", CategoryID: categoryID,
		SellPrice: decimal.NewFromInt(1000), Discount: decimal.NewFromInt(100), Stock: stock,
	}
	require.NoError(t, NewCatalogRepository(testPool).CreateItem(ctx, item))
	return item
}

func TestCustomerRepo_CreateAndSetActive(t *testing.T) {
	resetTables(t)

	repo := NewCustomerRepository(testPool)
	ctx := context.Background()

	c := createCustomer(t, "nimal@example.com")
	assert.NotEqual(t, uuid.Nil, c.ID)

	found, err := repo.GetByEmail(ctx, "nimal@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Active)

	require.NoError(t, repo.SetActive(ctx, c.ID, false))
	found, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)

	assert.ErrorIs(t, repo.SetActive(ctx, uuid.New(), true), pgx.ErrNoRows)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCustomerRepo_DuplicateEmail(t *testing.T) {
	resetTables(t)

	createCustomer(t, "dup@example.com")
	err := NewCustomerRepository(testPool).Create(context.Background(), nil,
		&model.Customer{Name: "Other", Email: "dup@example.com", Password: "h"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestCatalogRepo_StockGuard(t *testing.T) {
	resetTables(t)

	repo := NewCatalogRepository(testPool)
	ctx := context.Background()
	item := createItem(t, model.CategoryPhone, 2)
	assert.Equal(t, model.CategoryPhone, item.CategoryType)

	require.NoError(t, repo.DecrementStock(ctx, nil, item.ID, 2))
	assert.ErrorIs(t, repo.DecrementStock(ctx, nil, item.ID, 1), ErrInsufficientStock)

	require.NoError(t, repo.RestoreStock(ctx, nil, item.ID, 2))
	found, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)
}

func TestCartRepo_AddMergesQuantity(t *testing.T) {
	resetTables(t)

	repo := NewCartRepository(testPool)
	ctx := context.Background()
	c := createCustomer(t, "cart@example.com")
	item := createItem(t, model.CategoryAccessory, 10)

	require.NoError(t, repo.AddItem(ctx, c.ID, item.ID, 1))
	require.NoError(t, repo.AddItem(ctx, c.ID, item.ID, 2))

	lines, err := repo.ListLines(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)

	require.NoError(t, repo.Clear(ctx, nil, c.ID))
	lines, err = repo.ListLines(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCouponRepo_UsageLimitAndOncePerCustomer(t *testing.T) {
	resetTables(t)

	repo := NewCouponRepository(testPool)
	ctx := context.Background()
	alice := createCustomer(t, "alice@example.com")

	coupon := &model.CouponCode{
		Code: "SAVE300", DiscountType: model.DiscountFixedAmount, DiscountValue: decimal.NewFromInt(300),
		UsageLimit: 1, ExpiryDate: time.Now().Add(24 * time.Hour), Active: true, UserGroup: model.UserGroupAll,
	}
	require.NoError(t, repo.Create(ctx, coupon))

	took, err := repo.IncrementUsed(ctx, nil, coupon.ID)
	require.NoError(t, err)
	assert.True(t, took)

	took, err = repo.IncrementUsed(ctx, nil, coupon.ID)
	require.NoError(t, err)
	assert.False(t, took)

	order := &model.Order{CustomerID: alice.ID, Total: decimal.NewFromInt(700),
		PaymentMethod: model.PaymentMethodCOD, Status: model.OrderStatusPending}
	require.NoError(t, NewOrderRepository(testPool).Create(ctx, nil, order))

	recorded, err := repo.RecordUsage(ctx, nil, coupon.ID, alice.ID, order.ID)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = repo.RecordUsage(ctx, nil, coupon.ID, alice.ID, order.ID)
	require.NoError(t, err)
	assert.False(t, recorded)

	used, err := repo.HasUsage(ctx, coupon.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, used)
}

func TestOrderRepo_PlaceAndCompletePayment(t *testing.T) {
	resetTables(t)

	repo := NewOrderRepository(testPool)
	txm := NewTransactor(testPool)
	ctx := context.Background()
	c := createCustomer(t, "order@example.com")
	item := createItem(t, model.CategoryPhone, 5)

	order := &model.Order{CustomerID: c.ID, Total: decimal.NewFromInt(2100),
		PaymentMethod: model.PaymentMethodOnline, Status: model.OrderStatusPending}
	err := txm.WithTx(ctx, func(tx pgx.Tx) error {
		if err := repo.Create(ctx, tx, order); err != nil {
			return err
		}
		if err := repo.CreateItems(ctx, tx, []model.OrderItem{{
			OrderID: order.ID, ItemID: item.ID, Quantity: 2,
			ItemPrice: item.SellPrice, Discount: item.Discount,
		}}); err != nil {
			return err
		}
		if err := repo.CreateDelivering(ctx, tx, &model.Delivering{
			OrderID: order.ID, Name: "Nimal", Address: "12 Galle Rd", City: "Colombo",
			District: "Colombo", Phone: "0771234567",
		}); err != nil {
			return err
		}
		if err := repo.CreatePayment(ctx, tx, &model.Payment{OrderID: order.ID, Status: model.PaymentStatusPending}); err != nil {
			return err
		}
		return repo.SetPaymentToken(ctx, tx, order.ID, "cs_test_123")
	})
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.OrderStatusPending, found.Status)
	require.Len(t, found.Items, 1)
	assert.True(t, decimal.NewFromInt(1000).Equal(found.Items[0].ItemPrice))
	require.NotNil(t, found.Delivering)
	assert.Equal(t, "Colombo", found.Delivering.District)
	require.NotNil(t, found.Payment)
	assert.Equal(t, "cs_test_123", found.Payment.Token)
	assert.Nil(t, found.Payment.PaymentDate)

	require.NoError(t, repo.UpdatePaymentStatus(ctx, nil, order.ID, model.PaymentStatusCompleted))
	found, err = repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, found.Payment.Status)
	assert.NotNil(t, found.Payment.PaymentDate)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, nil, uuid.New(), model.OrderStatusProcessing), pgx.ErrNoRows)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	resetTables(t)

	ctx := context.Background()
	item := createItem(t, model.CategoryPhone, 3)
	catalog := NewCatalogRepository(testPool)

	boom := errors.New("boom")
	err := NewTransactor(testPool).WithTx(ctx, func(tx pgx.Tx) error {
		if err := catalog.DecrementStock(ctx, tx, item.ID, 3); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := catalog.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Stock)
}

func TestRepairRepo_ConflictWindow(t *testing.T) {
	resetTables(t)

	ctx := context.Background()
	repo := NewRepairRepository(testPool)
	c := createCustomer(t, "repair@example.com")

	tech := &model.Staff{Name: "Kasun", Email: "kasun@example.com", Password: "h", StaffType: model.StaffTypeTechnician}
	require.NoError(t, NewStaffRepository(testPool).Create(ctx, tech))

	at := time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)
	req := &model.RepairRequest{
		TechnicianID: tech.ID, CustomerID: c.ID, AppointmentDate: at,
		IssueDescription: "cracked screen", DeviceInfo: "iPhone 13", Status: model.RepairRequestPending,
	}
	require.NoError(t, repo.Create(ctx, nil, req))

	conflict, err := repo.HasConflict(ctx, nil, tech.ID, at.Add(-30*time.Minute), at.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = repo.HasConflict(ctx, nil, tech.ID, at.Add(time.Hour), at.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, conflict)

	mine, err := repo.ListByTechnician(ctx, tech.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Kasun", mine[0].TechnicianName)
	assert.Nil(t, mine[0].Repair)
}

func TestLoyaltyRepo_RecordAwardOncePerOrder(t *testing.T) {
	resetTables(t)

	ctx := context.Background()
	repo := NewLoyaltyRepository(testPool)
	c := createCustomer(t, "loyal@example.com")
	order := &model.Order{CustomerID: c.ID, Total: decimal.NewFromInt(2100),
		PaymentMethod: model.PaymentMethodCOD, Status: model.OrderStatusDelivered}
	require.NoError(t, NewOrderRepository(testPool).Create(ctx, nil, order))

	recorded, err := repo.RecordAward(ctx, nil, order.ID, c.ID, 21)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = repo.RecordAward(ctx, nil, order.ID, c.ID, 21)
	require.NoError(t, err)
	assert.False(t, recorded)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
	assert.Equal(t, "Galaxy", escapeLike("Galaxy"))
}

func TestCatalogRepo_SearchTreatsWildcardsLiterally(t *testing.T) {
	resetTables(t)

	ctx := context.Background()
	repo := NewCatalogRepository(testPool)
	createItem(t, model.CategoryPhone, 1)

	for _, term := range []string{"%", "_", "Galaxy%A55"} {
		items, err := repo.ListItems(ctx, ItemFilter{Search: term, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, items, "search %q", term)
	}

	items, err := repo.ListItems(ctx, ItemFilter{Search: "galaxy", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
