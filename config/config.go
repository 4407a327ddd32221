package config

import "time"

type Config struct {
	Web     Web
	DB      DB
	Redis   Redis
	Auth    Auth
	Cors    Cors
	Catalog Catalog
	Oauth   Oauth
	Log     Log
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`

	// Debug disables cache writes so that every request
	// hits the database with fresh data.
	Debug bool `conf:"default:false"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:megano"`
	DisableTLS bool   `conf:"default:true"`
}

type Redis struct {
	Address  string `conf:"default:localhost:6379"`
	Password string `conf:"default:,mask"`
}

type Auth struct {
	SessionLifetime time.Duration `conf:"default:24h"`
}

type Cors struct {
	Origin string
}

type Catalog struct {
	// PageLimit is the fallback page size when the client omits the limit
	// query parameter.
	PageLimit int `conf:"default:20"`

	// BannersCategory selects the category shown on the homepage banners.
	BannersCategory int64 `conf:"default:1"`

	// PopularRating is the exclusive lower bound on product rating for the
	// popular products section.
	PopularRating string `conf:"default:4"`

	// SectionLimit caps the banners/limited/popular sections.
	SectionLimit int `conf:"default:8"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:/"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string
	RedirectURL string
}

type Log struct {
	// ErrorFile is the append-only diagnostic log that records every error
	// occurrence with a timestamp, independent of the HTTP response.
	ErrorFile string `conf:"default:errors.log"`
}
