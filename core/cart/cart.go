package cart

import (
	"time"
)

// Cart is the durable per-user mirror of a session cart. There is exactly one
// per user, keyed by the user id.
type Cart struct {
	UserID    string    `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Items     []Item    `json:"items" db:"-"`
}

type Item struct {
	UserID    string    `json:"-" db:"user_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"count" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ItemNew is the add/remove request body shared by the basket endpoints.
type ItemNew struct {
	ProductID int64 `json:"id" validate:"required"`
	Count     int   `json:"count" validate:"required,gt=0"`
}
