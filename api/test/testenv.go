package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/LeoWanLW/Megano-Store/api"
	"github.com/LeoWanLW/Megano-Store/cache"
	"github.com/LeoWanLW/Megano-Store/config"
	"github.com/LeoWanLW/Megano-Store/core/auth"
	"github.com/LeoWanLW/Megano-Store/core/claims"
	"github.com/LeoWanLW/Megano-Store/core/user"
	"github.com/LeoWanLW/Megano-Store/database"
	"github.com/LeoWanLW/Megano-Store/rate"
	"github.com/LeoWanLW/Megano-Store/validate"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// One postgres container backs the whole package; every test gets its own
// database inside it.
var (
	pgOnce  sync.Once
	pgHost  string
	pgErr   error
	pgAdmin config.DB
)

func startPostgres() {
	pool, err := dockertest.NewPool("")
	if err != nil {
		pgErr = fmt.Errorf("connecting to docker: %w", err)
		return
	}

	res, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=postgres",
	})
	if err != nil {
		pgErr = fmt.Errorf("starting postgres container: %w", err)
		return
	}
	res.Expire(600)

	pgHost = "localhost:" + res.GetPort("5432/tcp")
	pgAdmin = config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       pgHost,
		Name:       "postgres",
		DisableTLS: true,
	}

	pgErr = pool.Retry(func() error {
		db, err := database.Open(pgAdmin)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	})
}

// TestEnv is a server running against a fresh database with one seeded user.
type TestEnv struct {
	Server   string
	URL      string
	DB       *sqlx.DB
	Cache    *cache.Memory
	Session  *scs.SessionManager
	UserName string
	UserPass string

	client *http.Client
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	pgOnce.Do(startPostgres)
	if pgErr != nil {
		return nil, pgErr
	}

	admin, err := database.Open(pgAdmin)
	if err != nil {
		return nil, fmt.Errorf("opening admin connection: %w", err)
	}
	defer admin.Close()

	if _, err := admin.Exec("CREATE DATABASE " + name); err != nil {
		return nil, fmt.Errorf("creating database %s: %w", name, err)
	}

	cfg := pgAdmin
	cfg.Name = name
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening test connection: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating: %w", err)
	}

	env := &TestEnv{
		DB:       db,
		Cache:    cache.NewMemory(),
		Session:  scs.New(),
		UserName: "gopher",
		UserPass: "gophers123",
	}
	env.Session.Lifetime = time.Hour

	env.CreateUser(t, env.UserName, env.UserPass)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mux := api.APIMux(api.APIConfig{
		Log:       logger,
		Diag:      logger,
		DB:        db,
		Session:   env.Session,
		Cache:     env.Cache,
		Catalog:   config.Catalog{PageLimit: 20, BannersCategory: 1, PopularRating: "4", SectionLimit: 8},
		Debug:     false,
		Providers: map[string]auth.Provider{},
		Limiter:   rate.NewLimiter(1000, 60, rate.Every(time.Millisecond)),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	env.Server = srv.URL
	env.URL = srv.URL + "/api"
	env.ResetSession(t)

	return env, nil
}

// Client returns the current visitor's http client. The cookie jar carries
// the session across requests.
func (env *TestEnv) Client() *http.Client {
	return env.client
}

// ResetSession swaps in an empty cookie jar, making the next request an
// anonymous first visit.
func (env *TestEnv) ResetSession(t *testing.T) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("building cookie jar: %v", err)
	}
	env.client = &http.Client{Jar: jar}
}

// CreateUser seeds a user directly, bypassing the signup endpoint.
func (env *TestEnv) CreateUser(t *testing.T, username, pass string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           validate.GenerateID(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         claims.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Create(context.Background(), env.DB, u); err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return u.ID
}

// CreateProduct seeds a product and returns its id.
func (env *TestEnv) CreateProduct(t *testing.T, title string, price string, count int, available bool, freeDelivery bool) int64 {
	const q = `
	INSERT INTO products (title, price, count, available, free_delivery, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	RETURNING product_id`

	var id int64
	if err := env.DB.QueryRow(q, title, price, count, available, freeDelivery).Scan(&id); err != nil {
		t.Fatalf("seeding product %s: %v", title, err)
	}
	return id
}

func (env *TestEnv) Login(t *testing.T) {
	env.LoginAs(t, env.UserName, env.UserPass)
}

func (env *TestEnv) LoginAs(t *testing.T, username, pass string) {
	body := map[string]string{"username": username, "password": pass}

	w := env.Do(t, http.MethodPost, "/sign-in", body)
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't sign in as %s: status code %s", username, w.Status)
	}
}

func (env *TestEnv) Logout(t *testing.T) {
	w := env.Do(t, http.MethodPost, "/sign-out", nil)
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't sign out: status code %s", w.Status)
	}
}

// Do issues a request with an optional JSON body, relative to the api root.
func (env *TestEnv) Do(t *testing.T, method string, path string, body any) *http.Response {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}

	r, err := http.NewRequest(method, env.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := env.client.Do(r)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// DoJSON issues the request and decodes the response body into dest,
// returning the status code.
func (env *TestEnv) DoJSON(t *testing.T, method string, path string, body any, dest any) int {
	w := env.Do(t, method, path, body)
	defer w.Body.Close()

	if dest != nil {
		if err := json.NewDecoder(w.Body).Decode(dest); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return w.StatusCode
}
