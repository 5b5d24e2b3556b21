package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodPickup PaymentMethod = "pickup"
	PaymentMethodOnline PaymentMethod = "online"
)

const (
	CategoryPhone      = "phone"
	CategoryAccessory  = "accessory"
	CategoryRepairPart = "repair part"
)

const (
	StaffTypeAdmin      = "admin"
	StaffTypeStaff      = "staff"
	StaffTypeTechnician = "technician"
)

const (
	ActorCustomer = "customer"
	ActorStaff    = "staff"
)

const (
	DiscountFixedAmount  = "fixed amount"
	DiscountFreeShipping = "free shipping"
	UserGroupAll         = "all"
)

const (
	BadgeBronze = "bronze"
	BadgeSilver = "silver"
	BadgeGold   = "gold"
)

type RepairRequestStatus string

const (
	RepairRequestPending  RepairRequestStatus = "pending"
	RepairRequestAccepted RepairRequestStatus = "accepted"
	RepairRequestRejected RepairRequestStatus = "rejected"
)

type RepairStatus string

const (
	RepairDiagnosticsCompleted RepairStatus = "diagnostics completed"
	RepairInProgress           RepairStatus = "repair in progress"
	RepairCompleted            RepairStatus = "repair completed"
)

type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	Phone     string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Staff struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	StaffType string
	Active    bool
	CreatedAt time.Time
}

type Category struct {
	ID   uuid.UUID
	Name string
	Type string
}

type Item struct {
	ID           uuid.UUID
	Name         string
	Brand        string
	CategoryID   uuid.UUID
	CategoryType string
	SellPrice    decimal.Decimal
	Discount     decimal.Decimal
	Stock        int
	Description  string
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CartLine is a cart row joined with the item it references.
type CartLine struct {
	ItemID    uuid.UUID
	Name      string
	Image     string
	SellPrice decimal.Decimal
	Discount  decimal.Decimal
	Quantity  int
}

type Order struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	Status        OrderStatus
	OrderDate     time.Time
	Items         []OrderItem
	Delivering    *Delivering
	Payment       *Payment
}

// OrderItem prices are a snapshot taken when the order was placed.
type OrderItem struct {
	OrderID   uuid.UUID
	ItemID    uuid.UUID
	Name      string
	Quantity  int
	ItemPrice decimal.Decimal
	Discount  decimal.Decimal
}

type Delivering struct {
	OrderID  uuid.UUID
	Name     string
	Address  string
	City     string
	District string
	Zip      string
	Phone    string
}

type Payment struct {
	OrderID     uuid.UUID
	Status      PaymentStatus
	PaymentDate *time.Time
	Token       string
}

// OrderSummary is the back-office listing row.
type OrderSummary struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	CustomerName  string
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	Status        OrderStatus
	PaymentStatus PaymentStatus
	District      string
	OrderDate     time.Time
}

type CouponCode struct {
	ID            uuid.UUID
	Code          string
	DiscountType  string
	DiscountValue decimal.Decimal
	UsageLimit    int
	UsedCount     int
	ExpiryDate    time.Time
	Active        bool
	UserGroup     string
	CreatedAt     time.Time
}

type LoyaltyProgram struct {
	CustomerID     uuid.UUID
	Badge          string
	TotalPoints    int
	CurrentPoints  int
	PointsRedeemed int
	UpdatedAt      time.Time
}

type DeliverArea struct {
	District     string
	ShippingCost decimal.Decimal
}

type Cancellation struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Reason     string
	Status     string
	UserType   string
	ActorID    uuid.UUID
	CancelDate time.Time
}

type RepairRequest struct {
	ID               uuid.UUID
	TechnicianID     uuid.UUID
	TechnicianName   string
	CustomerID       uuid.UUID
	AppointmentDate  time.Time
	IssueDescription string
	DeviceInfo       string
	Status           RepairRequestStatus
	Repair           *Repair
	CreatedAt        time.Time
}

type Repair struct {
	RequestID        uuid.UUID
	Status           RepairStatus
	IdentifiedIssue  string
	IdentifiedDevice string
	UpdatedAt        time.Time
}

// Event types carried on the store event queue.
const (
	EventPaymentCompleted = "payment.completed"
	EventOrderDelivered   = "order.delivered"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id,omitempty"`
	Reference  string    `json:"reference,omitempty"`
}
