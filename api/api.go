package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/LeoWanLW/Megano-Store/api/middleware"
	"github.com/LeoWanLW/Megano-Store/api/web"
	"github.com/LeoWanLW/Megano-Store/cache"
	"github.com/LeoWanLW/Megano-Store/config"
	"github.com/LeoWanLW/Megano-Store/core/auth"
	"github.com/LeoWanLW/Megano-Store/core/cart"
	"github.com/LeoWanLW/Megano-Store/core/order"
	"github.com/LeoWanLW/Megano-Store/core/product"
	"github.com/LeoWanLW/Megano-Store/core/user"
	"github.com/LeoWanLW/Megano-Store/database"
	"github.com/LeoWanLW/Megano-Store/rate"
	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	Diag             logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Cache            cache.Cache
	Catalog          config.Catalog
	Debug            bool
	Providers        map[string]auth.Provider
	LoginRedirectURL string
	Limiter          *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log, cfg.Diag))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	limited := middleware.RateLimit(cfg.Limiter)

	health := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := database.StatusCheck(ctx, cfg.DB); err != nil {
			return fmt.Errorf("database status check: %w", err)
		}
		return web.Respond(ctx, w, struct {
			Status string `json:"status"`
		}{"ok"}, http.StatusOK)
	}
	a.Handle(http.MethodGet, "/api/health", health)

	a.Handle(http.MethodPost, "/api/sign-up", auth.HandleSignup(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/api/sign-in", auth.HandleLogin(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/api/sign-out", auth.HandleLogout(cfg.DB, cfg.Session))
	a.Handle(http.MethodGet, "/api/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/api/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/api/profile", user.HandleShowProfile(cfg.DB), authen)
	a.Handle(http.MethodPost, "/api/profile", user.HandleUpdateProfile(cfg.DB), authen)
	a.Handle(http.MethodPost, "/api/profile/password", user.HandleChangePassword(cfg.DB), authen)

	a.Handle(http.MethodGet, "/api/categories", product.HandleCategories(cfg.DB, cfg.Cache, cfg.Debug))
	a.Handle(http.MethodGet, "/api/tags", product.HandleTags(cfg.DB, cfg.Cache, cfg.Debug))
	a.Handle(http.MethodGet, "/api/catalog", product.HandleCatalog(cfg.DB, cfg.Cache, cfg.Catalog, cfg.Debug))
	a.Handle(http.MethodGet, "/api/banners", product.HandleBanners(cfg.DB, cfg.Cache, cfg.Catalog, cfg.Debug))
	a.Handle(http.MethodGet, "/api/products/limited", product.HandleLimited(cfg.DB, cfg.Cache, cfg.Catalog, cfg.Debug))
	a.Handle(http.MethodGet, "/api/products/popular", product.HandlePopular(cfg.DB, cfg.Cache, cfg.Catalog, cfg.Debug))
	a.Handle(http.MethodGet, "/api/sales", product.HandleSales(cfg.DB, cfg.Cache, cfg.Catalog, cfg.Debug))
	a.Handle(http.MethodGet, "/api/product/{id}", product.HandleShow(cfg.DB, cfg.Cache, cfg.Debug))
	a.Handle(http.MethodPost, "/api/product/{id}/reviews", product.HandleCreateReview(cfg.DB))

	a.Handle(http.MethodGet, "/api/basket", cart.HandleShow(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/api/basket", cart.HandleAddItem(cfg.DB, cfg.Session))
	a.Handle(http.MethodDelete, "/api/basket", cart.HandleRemoveItem(cfg.DB, cfg.Session))

	a.Handle(http.MethodGet, "/api/orders", order.HandleList(cfg.DB), authen)
	a.Handle(http.MethodPost, "/api/orders", order.HandleCreate(cfg.DB, cfg.Session))
	a.Handle(http.MethodGet, "/api/order/{id}", order.HandleShow(cfg.DB))
	a.Handle(http.MethodPost, "/api/order/{id}", order.HandleUpdate(cfg.DB))
	a.Handle(http.MethodPost, "/api/payment/{id}", order.HandlePay(cfg.DB), limited)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
