package auth

import (
	"context"
	"time"

	"github.com/LeoWanLW/Megano-Store/core/cart"
	"github.com/LeoWanLW/Megano-Store/core/order"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

// Trigger names the auth boundary that caused a reconciliation.
type Trigger int

const (
	TriggerRegister Trigger = iota
	TriggerLogin
	TriggerLogout
)

// Reconcile merges the session-held cart with durable storage at an auth
// boundary.
//
// Register and login first look for an unclaimed order carrying the current
// session key; when one exists it is claimed for the user and the session
// cart is left untouched, since the cart already lives on as that order.
// Otherwise the session cart is materialized: registration inserts the
// positive lines under a fresh cart, login and logout fold each line into the
// user's durable cart, deleting lines whose quantity dropped to zero. Any
// merge ends with the session cart cleared.
func Reconcile(ctx context.Context, db *sqlx.DB, sess *scs.SessionManager, trigger Trigger, userID string) error {
	now := time.Now().UTC()

	if token := sess.Token(ctx); token != "" && (trigger == TriggerRegister || trigger == TriggerLogin) {
		claimed, err := order.Claim(ctx, db, token, userID, now)
		if err != nil {
			return err
		}
		if claimed {
			return nil
		}
	}

	s, err := cart.LoadSession(ctx, sess)
	if err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}

	if trigger == TriggerRegister {
		err = cart.CreateForNewUser(ctx, db, userID, s, now)
	} else {
		err = cart.Merge(ctx, db, userID, s, now)
	}
	if err != nil {
		return err
	}

	cart.ClearSession(ctx, sess)
	return nil
}
