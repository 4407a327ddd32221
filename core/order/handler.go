package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/LeoWanLW/Megano-Store/api/web"
	"github.com/LeoWanLW/Megano-Store/api/weberr"
	"github.com/LeoWanLW/Megano-Store/core/cart"
	"github.com/LeoWanLW/Megano-Store/core/claims"
	"github.com/LeoWanLW/Megano-Store/core/product"
	"github.com/LeoWanLW/Megano-Store/core/user"
	"github.com/LeoWanLW/Megano-Store/database"
	"github.com/LeoWanLW/Megano-Store/validate"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// HandleCreate converts the posted product lines into an order. Requested
// quantities are clamped to the available stock; lines with a non-positive
// quantity or no stock are collected into an error map. When no line
// survives, the whole transaction rolls back and the map is returned with a
// 400.
func HandleCreate(db *sqlx.DB, sess *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var lines []Line
		if err := web.Decode(w, r, &lines); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding order lines: %w", err))
		}

		// Later duplicates of a product win, as with a JSON object keyed
		// by product id.
		counts := make(map[int64]int, len(lines))
		for _, ln := range lines {
			counts[ln.ProductID] = ln.Count
		}

		var userID, sessionKey *string
		if clm, err := claims.Get(ctx); err == nil {
			userID = &clm.UserID
		} else if token := sess.Token(ctx); token != "" {
			sessionKey = &token
		}

		now := time.Now().UTC()
		errs := map[string]string{}

		var orderID int64
		err := database.Transaction(db, func(tx sqlx.ExtContext) error {
			id, err := Create(ctx, tx, userID, sessionKey, now)
			if err != nil {
				return err
			}

			total := decimal.Zero
			anyItem := false

			for productID, count := range counts {
				prod, err := product.Fetch(ctx, tx, productID)
				if err != nil {
					if errors.Is(err, product.ErrNotFound) {
						return weberr.NotFound(err)
					}
					return err
				}

				if count <= 0 {
					errs[fmt.Sprintf("OrderError(%d)", productID)] =
						fmt.Sprintf("Number of <%s> in order is zero.", prod.Title)
					continue
				}

				if prod.Count <= 0 {
					errs[fmt.Sprintf("ValueError(%d)", productID)] =
						fmt.Sprintf("<%s> is not available (count = 0).", prod.Title)
					continue
				}

				if count > prod.Count {
					count = prod.Count
				}

				it := Item{
					OrderID:   id,
					ProductID: productID,
					Quantity:  count,
					CreatedAt: now,
				}
				if err := CreateItem(ctx, tx, it); err != nil {
					return err
				}

				total = total.Add(prod.Price.Mul(decimal.NewFromInt(int64(count))))
				anyItem = true
			}

			if !anyItem {
				return weberr.ErrorMap(errors.New("order has no valid lines"), errs, http.StatusBadRequest)
			}

			if err := UpdateTotal(ctx, tx, id, total, now); err != nil {
				return err
			}

			orderID = id
			return nil
		})
		if err != nil {
			return err
		}

		cart.ClearSession(ctx, sess)

		return web.Respond(ctx, w, struct {
			OrderID int64 `json:"orderId"`
		}{orderID}, http.StatusCreated)
	}
}

// HandleUpdate collects the delivery and payment-method fields and moves the
// order to pending. The fields are stored as the client sent them.
func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing order id: %w", err))
		}

		if _, err := Fetch(ctx, db, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		var up Update
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding order update: %w", err))
		}

		var userID *string
		if clm, err := claims.Get(ctx); err == nil {
			userID = &clm.UserID
		}

		if err := UpdateDetails(ctx, db, id, up, userID, time.Now().UTC()); err != nil {
			return err
		}

		return web.Respond(ctx, w, struct {
			OrderID int64 `json:"orderId"`
		}{id}, http.StatusCreated)
	}
}

// HandlePay validates the card number and, in one transaction, marks the
// order paid and decrements the stock of every ordered product, flooring at
// zero and flagging sold-out products unavailable.
func HandlePay(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing order id: %w", err))
		}

		var pay Payment
		if err := web.Decode(w, r, &pay); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding payment: %w", err))
		}

		if err := validate.Check(pay); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		if !ValidCard(pay.Number) {
			err := errors.New("rejected card number")
			return weberr.ErrorMap(err, map[string]string{
				"PaymentError": "The card number is incorrect.",
			}, http.StatusBadRequest)
		}

		now := time.Now().UTC()

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			ord, err := Fetch(ctx, tx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return weberr.NotFound(err)
				}
				return err
			}

			if err := UpdateStatus(ctx, tx, ord.ID, Paid, now); err != nil {
				return err
			}

			items, err := FetchItems(ctx, tx, ord.ID)
			if err != nil {
				return err
			}

			for _, it := range items {
				prod, err := product.Fetch(ctx, tx, it.ProductID)
				if err != nil {
					return err
				}

				count := prod.Count - it.Quantity
				available := prod.Available
				if count <= 0 {
					count = 0
					available = false
				}

				if err := product.UpdateStock(ctx, tx, prod.ID, count, available, now); err != nil {
					return err
				}
			}

			return nil
		})
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, struct {
			Message string `json:"Message"`
		}{fmt.Sprintf("Order № %d has been successfully paid.", id)}, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orders, err := FetchByUser(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		views := make([]View, 0, len(orders))
		for _, ord := range orders {
			v, err := render(ctx, db, ord)
			if err != nil {
				return err
			}
			views = append(views, v)
		}

		return web.Respond(ctx, w, views, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing order id: %w", err))
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		v, err := render(ctx, db, ord)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, v, http.StatusOK)
	}
}

func render(ctx context.Context, db sqlx.ExtContext, ord Order) (View, error) {
	v := View{Order: ord}

	if ord.UserID != nil {
		u, err := user.Fetch(ctx, db, *ord.UserID)
		if err != nil {
			return View{}, err
		}
		v.FullName = u.FullName()
		v.Email = u.Email
		v.Phone = u.Phone
	}

	items, err := FetchItems(ctx, db, ord.ID)
	if err != nil {
		return View{}, err
	}

	quantities := make(map[int64]int, len(items))
	for _, it := range items {
		quantities[it.ProductID] = it.Quantity
	}

	v.Products, err = cart.Render(ctx, db, quantities)
	if err != nil {
		return View{}, err
	}

	return v, nil
}
