package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/phone-store-api/internal/model"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// --- Auth ---

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type StaffRegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	StaffType string `json:"staff_type" binding:"required,oneof=admin staff technician"`
}

type ProfileResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role,omitempty"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// --- Catalog ---

type ListItemsRequest struct {
	CategoryID string `form:"categoryId"`
	Search     string `form:"search"`
	SortBy     string `form:"sortBy"`
	Page       int    `form:"page,default=1" binding:"min=1"`
	Limit      int    `form:"limit,default=24" binding:"min=1,max=100"`
}

type CategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	CategoryID  uuid.UUID       `json:"category_id"`
	SellPrice   decimal.Decimal `json:"sell_price"`
	Discount    decimal.Decimal `json:"discount"`
	FinalPrice  decimal.Decimal `json:"final_price"`
	Stock       int             `json:"stock_quantity"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type CreateItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Brand       string          `json:"brand" binding:"required"`
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	SellPrice   decimal.Decimal `json:"sell_price" binding:"required"`
	Discount    decimal.Decimal `json:"discount"`
	Stock       int             `json:"stock_quantity" binding:"min=0"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
}

type UpdateItemRequest struct {
	Name        *string          `json:"name"`
	Brand       *string          `json:"brand"`
	SellPrice   *decimal.Decimal `json:"sell_price"`
	Discount    *decimal.Decimal `json:"discount"`
	Stock       *int             `json:"stock_quantity"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CartLineResponse struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Discount  decimal.Decimal `json:"discount"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// --- Orders ---

type PlaceOrderRequest struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	City          string `json:"city"`
	District      string `json:"district"`
	Zip           string `json:"zip"`
	Phone         string `json:"phone"`
	CouponCode    string `json:"coupon_code"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=cod pickup online"`
}

type PlaceOrderResponse struct {
	OrderID           uuid.UUID       `json:"order_id"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	CouponDiscount    decimal.Decimal `json:"coupon_discount"`
	Total             decimal.Decimal `json:"total"`
	IsPaymentRequired bool            `json:"isPaymentRequired"`
	SessionURL        string          `json:"sessionUrl,omitempty"`
}

type OrderItemResponse struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	ItemPrice decimal.Decimal `json:"item_price"`
	Discount  decimal.Decimal `json:"discount"`
}

type DeliveringResponse struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone"`
}

type PaymentResponse struct {
	Status      model.PaymentStatus `json:"status"`
	PaymentDate *time.Time          `json:"payment_date,omitempty"`
}

type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Status        model.OrderStatus   `json:"status"`
	OrderDate     time.Time           `json:"order_date"`
	Items         []OrderItemResponse `json:"items,omitempty"`
	Delivering    *DeliveringResponse `json:"delivering,omitempty"`
	Payment       *PaymentResponse    `json:"payment,omitempty"`
}

type OrderSummaryResponse struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	CustomerName  string              `json:"customer_name"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	District      string              `json:"district"`
	OrderDate     time.Time           `json:"order_date"`
}

type ListOrdersRequest struct {
	District string `form:"district"`
	Status   string `form:"status"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing dispatched delivered"`
}

type UpdatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending completed failed refunded"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type DeliverAreaResponse struct {
	District     string          `json:"district"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

// --- Coupons ---

type ValidateCouponRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CouponQuoteResponse struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type"`
	Discount     decimal.Decimal `json:"discount"`
	FreeShipping bool            `json:"free_shipping"`
}

type CreateCouponRequest struct {
	Code          string          `json:"code" binding:"required"`
	DiscountType  string          `json:"discount_type" binding:"required,oneof='fixed amount' 'free shipping'"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	UsageLimit    int             `json:"usage_limit" binding:"required,min=1"`
	ExpiryDate    time.Time       `json:"expiry_date" binding:"required"`
	UserGroup     string          `json:"user_group"`
}

type CouponResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	UsageLimit    int             `json:"usage_limit"`
	UsedCount     int             `json:"used_count"`
	ExpiryDate    time.Time       `json:"expiry_date"`
	IsActive      bool            `json:"is_active"`
	UserGroup     string          `json:"user_group"`
}

// --- Loyalty ---

type LoyaltyResponse struct {
	Badge          string    `json:"badge"`
	TotalPoints    int       `json:"total_points"`
	CurrentPoints  int       `json:"current_points"`
	PointsRedeemed int       `json:"points_redeemed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type LoyaltyQuoteResponse struct {
	CurrentPoints    int             `json:"current_points"`
	RedeemablePoints int             `json:"redeemable_points"`
	Discount         decimal.Decimal `json:"discount"`
}

// --- Repairs ---

type TechnicianResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type AvailabilityRequest struct {
	TechnicianID    string    `form:"technicianId" binding:"required"`
	AppointmentDate time.Time `form:"appointmentDate" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type SubmitRepairRequest struct {
	TechnicianID     uuid.UUID  `json:"technician_id"`
	IssueDescription string     `json:"issue_description"`
	DeviceInfo       string     `json:"device_info"`
	AppointmentDate  *time.Time `json:"appointment_date"`
}

type RespondRepairRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected"`
}

type UpdateRepairRequest struct {
	Status           string `json:"status" binding:"required,oneof='diagnostics completed' 'repair in progress' 'repair completed'"`
	IdentifiedIssue  string `json:"identified_issue"`
	IdentifiedDevice string `json:"identified_device"`
}

type RepairResponse struct {
	Status           model.RepairStatus `json:"status"`
	IdentifiedIssue  string             `json:"identified_issue"`
	IdentifiedDevice string             `json:"identified_device"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type RepairRequestResponse struct {
	ID               uuid.UUID                 `json:"id"`
	TechnicianID     uuid.UUID                 `json:"technician_id"`
	TechnicianName   string                    `json:"technician_name,omitempty"`
	CustomerID       uuid.UUID                 `json:"customer_id"`
	AppointmentDate  time.Time                 `json:"appointment_date"`
	IssueDescription string                    `json:"issue_description"`
	DeviceInfo       string                    `json:"device_info"`
	Status           model.RepairRequestStatus `json:"status"`
	Repair           *RepairResponse           `json:"repair,omitempty"`
}
