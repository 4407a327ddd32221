package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

func Create(ctx context.Context, db sqlx.ExtContext, userID *string, sessionKey *string, now time.Time) (int64, error) {
	const q = `
		INSERT INTO orders (user_id, session_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING order_id`

	var id int64
	if err := sqlx.GetContext(ctx, db, &id, q, userID, sessionKey, Created, now); err != nil {
		return 0, fmt.Errorf("creating order: %w", err)
	}

	return id, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id int64) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("fetching order[%d]: %w", id, err)
	}

	return ord, nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q, userID); err != nil {
		return nil, fmt.Errorf("fetching orders for user[%s]: %w", userID, err)
	}

	return orders, nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
		INSERT INTO order_items (order_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := db.ExecContext(ctx, q, it.OrderID, it.ProductID, it.Quantity, it.CreatedAt); err != nil {
		return fmt.Errorf("creating order item[%d/%d]: %w", it.OrderID, it.ProductID, err)
	}

	return nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID int64) ([]Item, error) {
	const q = `SELECT * FROM order_items WHERE order_id = $1 ORDER BY product_id`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("fetching order items[%d]: %w", orderID, err)
	}

	return items, nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id int64) error {
	const q = `DELETE FROM orders WHERE order_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting order[%d]: %w", id, err)
	}

	return nil
}

func UpdateTotal(ctx context.Context, db sqlx.ExtContext, id int64, total decimal.Decimal, now time.Time) error {
	const q = `UPDATE orders SET total_cost = $2, updated_at = $3 WHERE order_id = $1`

	if _, err := db.ExecContext(ctx, q, id, total, now); err != nil {
		return fmt.Errorf("updating order total[%d]: %w", id, err)
	}

	return nil
}

// UpdateDetails writes the delivery/payment fields, moves the order to
// Pending and assigns the user when the order has none yet.
func UpdateDetails(ctx context.Context, db sqlx.ExtContext, id int64, up Update, userID *string, now time.Time) error {
	const q = `
		UPDATE orders SET
			user_id = COALESCE(user_id, $2),
			status = $3,
			delivery_type = $4,
			delivery_city = $5,
			delivery_address = $6,
			payment_type = $7,
			updated_at = $8
		WHERE order_id = $1`

	if _, err := db.ExecContext(ctx, q, id, userID, Pending, up.DeliveryType, up.DeliveryCity, up.DeliveryAddress, up.PaymentType, now); err != nil {
		return fmt.Errorf("updating order details[%d]: %w", id, err)
	}

	return nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id int64, status Status, now time.Time) error {
	const q = `UPDATE orders SET status = $2, updated_at = $3 WHERE order_id = $1`

	if _, err := db.ExecContext(ctx, q, id, status, now); err != nil {
		return fmt.Errorf("updating order status[%d]: %w", id, err)
	}

	return nil
}

// Claim assigns the user to the unclaimed order carrying the session key and
// clears the key. It reports whether such an order existed. At most one
// unclaimed order exists per session key.
func Claim(ctx context.Context, db sqlx.ExtContext, sessionKey string, userID string, now time.Time) (bool, error) {
	const q = `
		UPDATE orders SET user_id = $2, session_key = NULL, updated_at = $3
		WHERE order_id = (
			SELECT order_id FROM orders
			WHERE session_key = $1 AND user_id IS NULL
			ORDER BY created_at
			LIMIT 1
		)`

	res, err := db.ExecContext(ctx, q, sessionKey, userID, now)
	if err != nil {
		return false, fmt.Errorf("claiming order for session[%s]: %w", sessionKey, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming order for session[%s]: %w", sessionKey, err)
	}

	return n > 0, nil
}
