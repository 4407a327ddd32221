package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/LeoWanLW/Megano-Store/api/web"
	"github.com/LeoWanLW/Megano-Store/api/weberr"
	"github.com/LeoWanLW/Megano-Store/core/claims"
	"github.com/LeoWanLW/Megano-Store/core/user"
	"github.com/alexedwards/scs/v2"
)

const (
	sessionKeyUserID = "user_id"
	sessionKeyRole   = "role"
)

// LoadAndSave runs every request through the session manager and projects the
// session's auth state into context claims.
func LoadAndSave(sess *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := sess.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := r.Context()

				if uid := sess.GetString(ctx, sessionKeyUserID); uid != "" {
					ctx = claims.Set(ctx, claims.Claims{
						UserID: uid,
						Role:   sess.GetString(ctx, sessionKeyRole),
					})
				}

				err = handler(ctx, w, r)
			}))

			sh.ServeHTTP(w, r)
			return err
		}
		return h
	}
	return m
}

// Authenticate rejects requests without a logged-in session.
func Authenticate(sess *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if _, err := claims.Get(ctx); err != nil {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// loginSession rotates the session token and stores the user's identity.
// Callers must run cart reconciliation first: rotation invalidates the token
// that anonymous orders were keyed by.
func loginSession(ctx context.Context, sess *scs.SessionManager, u user.User) error {
	if err := sess.RenewToken(ctx); err != nil {
		return err
	}

	sess.Put(ctx, sessionKeyUserID, u.ID)
	sess.Put(ctx, sessionKeyRole, u.Role)
	return nil
}

func logoutSession(ctx context.Context, sess *scs.SessionManager) error {
	return sess.Destroy(ctx)
}
