package auth

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
	"github.com/LeoWanLW/Megano-Store/core/user"
	"github.com/LeoWanLW/Megano-Store/validate"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type SignupNew struct {
	Name     string `json:"name"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,gte=8"`
}

type LoginNew struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	UserID  string `json:"userID"`
	Message string `json:"message"`
}

// HandleSignup registers a user, reconciles the session cart under the new
// account and logs the session in.
func HandleSignup(db *sqlx.DB, sess *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in SignupNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding signup: %w", err))
		}

		in.Username = strings.TrimSpace(in.Username)
		in.Password = strings.TrimSpace(in.Password)
		in.Name = strings.TrimSpace(in.Name)

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		if ok, err := user.UsernameExists(ctx, db, in.Username); err != nil {
			return err
		} else if ok {
			return weberr.ErrorMap(errors.New("username taken"), map[string]string{
				"UserNameError": fmt.Sprintf("<%s> user`s name already exists.", in.Username),
			}, http.StatusBadRequest)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Username:     in.Username,
			PasswordHash: string(hash),
			FirstName:    in.Name,
			Role:         claims.RoleUser,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, u); err != nil {
			return err
		}

		if err := Reconcile(ctx, db, sess, TriggerRegister, u.ID); err != nil {
			return err
		}

		if err := loginSession(ctx, sess, u); err != nil {
			return err
		}

		return web.Respond(ctx, w, authResponse{
			UserID:  u.ID,
			Message: "User is created and logged in.",
		}, http.StatusCreated)
	}
}

// HandleLogin authenticates, claims any anonymous order left by this session
// or merges the session cart, then logs the session in.
func HandleLogin(db *sqlx.DB, sess *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in LoginNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding login: %w", err))
		}

		in.Username = strings.TrimSpace(in.Username)
		in.Password = strings.TrimSpace(in.Password)

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		authErr := weberr.ErrorMap(errors.New("authentication failed"), map[string]string{
			"AuthError": "Authentication error.",
		}, http.StatusBadRequest)

		u, err := user.FetchByUsername(ctx, db, in.Username)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return authErr
			}
			return err
		}

		if !u.Active {
			return authErr
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
			return authErr
		}

		if err := Reconcile(ctx, db, sess, TriggerLogin, u.ID); err != nil {
			return err
		}

		if err := loginSession(ctx, sess, u); err != nil {
			return err
		}

		return web.Respond(ctx, w, authResponse{
			UserID:  u.ID,
			Message: "User is logged in.",
		}, http.StatusOK)
	}
}

// HandleLogout saves the session cart back to the user's durable cart before
// destroying the session.
func HandleLogout(db *sqlx.DB, sess *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if clm, err := claims.Get(ctx); err == nil {
			if err := Reconcile(ctx, db, sess, TriggerLogout, clm.UserID); err != nil {
				return err
			}
		}

		if err := logoutSession(ctx, sess); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, struct {
			Message string `json:"message"`
		}{"User is logged out."}, http.StatusOK)
	}
}
