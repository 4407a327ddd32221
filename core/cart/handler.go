package cart

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/LeoWanLW/Megano-Store/api/web"
	"github.com/LeoWanLW/Megano-Store/api/weberr"
	"github.com/LeoWanLW/Megano-Store/core/claims"
	"github.com/LeoWanLW/Megano-Store/core/product"
	"github.com/LeoWanLW/Megano-Store/validate"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

// Render joins the given product quantities with catalog data into the short
// product form.
func Render(ctx context.Context, db sqlx.ExtContext, quantities map[int64]int) ([]product.Listed, error) {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}

	items, err := product.FetchListed(ctx, db, ids)
	if err != nil {
		return nil, fmt.Errorf("rendering cart: %w", err)
	}

	for i := range items {
		items[i].Count = quantities[items[i].ID]
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return items, nil
}

// HandleShow returns the visitor's cart. An empty session cart belonging to
// an authenticated user is first restored from the durable cart.
func HandleShow(db *sqlx.DB, sess *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := LoadSession(ctx, sess)
		if err != nil {
			return err
		}

		if len(s) == 0 {
			clm, err := claims.Get(ctx)
			if err != nil {
				return web.Respond(ctx, w, []product.Listed{}, http.StatusOK)
			}

			if err := Ensure(ctx, db, clm.UserID, time.Now().UTC()); err != nil {
				return err
			}

			items, err := FetchItems(ctx, db, clm.UserID)
			if err != nil {
				return err
			}

			for _, it := range items {
				s[it.ProductID] = it.Quantity
			}

			if len(s) > 0 {
				if err := StoreSession(ctx, sess, s); err != nil {
					return err
				}
			}
		}

		listed, err := Render(ctx, db, s.Quantities())
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, listed, http.StatusOK)
	}
}

func HandleAddItem(db *sqlx.DB, sess *scs.SessionManager) web.Handler {
	return mutateHandler(db, sess, Session.Add)
}

func HandleRemoveItem(db *sqlx.DB, sess *scs.SessionManager) web.Handler {
	return mutateHandler(db, sess, Session.Remove)
}

func mutateHandler(db *sqlx.DB, sess *scs.SessionManager, mutate func(Session, int64, int)) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding cart item: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		s, err := LoadSession(ctx, sess)
		if err != nil {
			return err
		}

		mutate(s, in.ProductID, in.Count)

		if err := StoreSession(ctx, sess, s); err != nil {
			return err
		}

		listed, err := Render(ctx, db, s.Quantities())
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, listed, http.StatusOK)
	}
}
