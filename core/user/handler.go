package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/LeoWanLW/Megano-Store/api/web"
	"github.com/LeoWanLW/Megano-Store/api/weberr"
	"github.com/LeoWanLW/Megano-Store/core/claims"
	"github.com/LeoWanLW/Megano-Store/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

func HandleShowProfile(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		u, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		p := Profile{FullName: u.FullName(), Email: u.Email, Phone: u.Phone}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

// HandleUpdateProfile rewrites name, email and phone. Emails and phone
// numbers already held by another user are rejected with a named error map.
func HandleUpdateProfile(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var up ProfileUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding profile: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		first := up.FullName
		last := ""
		if parts := strings.SplitN(strings.TrimSpace(up.FullName), " ", 2); len(parts) == 2 {
			first, last = parts[0], parts[1]
		}

		email := strings.TrimSpace(up.Email)
		phone := strings.TrimSpace(up.Phone)

		errs := map[string]string{}

		if ok, err := EmailExists(ctx, db, email, clm.UserID); err != nil {
			return err
		} else if ok {
			errs["UserEmailError"] = fmt.Sprintf("Email <%s> already exists.", email)
		}

		if ok, err := PhoneExists(ctx, db, phone, clm.UserID); err != nil {
			return err
		} else if ok {
			errs["UserPhoneError"] = fmt.Sprintf("Phone number <%s> already exists.", phone)
		}

		if len(errs) > 0 {
			return weberr.ErrorMap(errors.New("profile conflicts"), errs, http.StatusBadRequest)
		}

		if err := UpdateProfile(ctx, db, clm.UserID, first, last, email, phone, time.Now().UTC()); err != nil {
			return err
		}

		u, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		p := Profile{FullName: u.FullName(), Email: u.Email, Phone: u.Phone}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleChangePassword(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var up PasswordUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding password change: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		u, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(up.CurrentPassword))); err != nil {
			return weberr.ErrorMap(errors.New("current password mismatch"), map[string]string{
				"PasswordError": "Current password is not valid.",
			}, http.StatusBadRequest)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(up.NewPassword)), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		if err := UpdatePassword(ctx, db, clm.UserID, string(hash), time.Now().UTC()); err != nil {
			return err
		}

		return web.Respond(ctx, w, struct {
			Success string `json:"Success"`
		}{"Your password has been changed."}, http.StatusOK)
	}
}
