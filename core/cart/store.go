package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Ensure creates the user's durable cart when it does not exist yet.
func Ensure(ctx context.Context, db sqlx.ExtContext, userID string, now time.Time) error {
	const q = `
		INSERT INTO carts (user_id, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := db.ExecContext(ctx, q, userID, now); err != nil {
		return fmt.Errorf("ensuring cart for user[%s]: %w", userID, err)
	}

	return nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 ORDER BY product_id`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, userID); err != nil {
		return nil, fmt.Errorf("fetching cart items for user[%s]: %w", userID, err)
	}

	return items, nil
}

// SetItem stores the absolute quantity for a cart line, inserting or updating
// as needed.
func SetItem(ctx context.Context, db sqlx.ExtContext, userID string, productID int64, quantity int, now time.Time) error {
	const q = `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = $3, updated_at = $4`

	if _, err := db.ExecContext(ctx, q, userID, productID, quantity, now); err != nil {
		return fmt.Errorf("setting cart item[%d] for user[%s]: %w", productID, userID, err)
	}

	return nil
}

func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID string, productID int64) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	if _, err := db.ExecContext(ctx, q, userID, productID); err != nil {
		return fmt.Errorf("deleting cart item[%d] for user[%s]: %w", productID, userID, err)
	}

	return nil
}

// Merge folds a session cart into the user's durable cart: positive
// quantities are written as the new absolute value, the rest delete the line.
func Merge(ctx context.Context, db sqlx.ExtContext, userID string, s Session, now time.Time) error {
	if err := Ensure(ctx, db, userID, now); err != nil {
		return err
	}

	for productID, quantity := range s {
		if quantity > 0 {
			if err := SetItem(ctx, db, userID, productID, quantity, now); err != nil {
				return err
			}
		} else {
			if err := DeleteItem(ctx, db, userID, productID); err != nil {
				return err
			}
		}
	}

	return nil
}

// CreateForNewUser materializes a registration-time session cart. Lines with
// a non-positive quantity are dropped.
func CreateForNewUser(ctx context.Context, db sqlx.ExtContext, userID string, s Session, now time.Time) error {
	if err := Ensure(ctx, db, userID, now); err != nil {
		return err
	}

	for productID, quantity := range s {
		if quantity <= 0 {
			continue
		}
		if err := SetItem(ctx, db, userID, productID, quantity, now); err != nil {
			return err
		}
	}

	return nil
}
