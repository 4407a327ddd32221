package order

import (
	"time"

	"github.com/LeoWanLW/Megano-Store/core/product"
	"github.com/shopspring/decimal"
)

// Status advances monotonically: Created → Pending → Paid. There is no
// cancellation state.
type Status string

const (
	Created Status = "created"
	Pending Status = "pending"
	Paid    Status = "paid"
)

type Order struct {
	ID              int64           `json:"id" db:"order_id"`
	UserID          *string         `json:"-" db:"user_id"`
	SessionKey      *string         `json:"-" db:"session_key"`
	Status          Status          `json:"status" db:"status"`
	DeliveryType    string          `json:"deliveryType" db:"delivery_type"`
	DeliveryCity    string          `json:"city" db:"delivery_city"`
	DeliveryAddress string          `json:"address" db:"delivery_address"`
	PaymentType     string          `json:"paymentType" db:"payment_type"`
	TotalCost       decimal.Decimal `json:"totalCost" db:"total_cost"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"-" db:"updated_at"`
}

// Item is an immutable snapshot of the quantity at order-creation time.
type Item struct {
	OrderID   int64     `json:"orderId" db:"order_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"count" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Line is one product/quantity pair of a checkout request.
type Line struct {
	ProductID int64 `json:"id"`
	Count     int   `json:"count"`
}

// Update carries the delivery and payment fields collected before payment.
type Update struct {
	DeliveryType    string `json:"deliveryType"`
	DeliveryCity    string `json:"city"`
	DeliveryAddress string `json:"address"`
	PaymentType     string `json:"paymentType"`
}

// Payment is the card data of the fake payment step.
type Payment struct {
	Number string `json:"number" validate:"required"`
}

// View is the order as served to clients, with its products joined in.
type View struct {
	Order
	FullName string           `json:"fullName,omitempty"`
	Email    string           `json:"email,omitempty"`
	Phone    string           `json:"phone,omitempty"`
	Products []product.Listed `json:"products"`
}
