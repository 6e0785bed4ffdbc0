package config

import (
	"time"

	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storeclient"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	pkgconfig.Config

	StoreAPIURL     string
	StoreAPITimeout time.Duration
	SignInURL       string
	EngineIdleTTL   time.Duration
	SweepInterval   time.Duration
	CSRF            bool
	CookieSecure    bool
}

func Load() Config {
	base := pkgconfig.Load(".env")
	if base.ServiceName == "" {
		base.ServiceName = "storefront"
	}

	cfg := Config{
		Config:          base,
		StoreAPIURL:     pkgconfig.EnvDefault("STORE_API_URL", ""),
		StoreAPITimeout: pkgconfig.EnvDurationDefault("STORE_API_TIMEOUT", storeclient.DefaultTimeout),
		SignInURL:       pkgconfig.EnvDefault("SIGN_IN_URL", session.DefaultSignInURL),
		EngineIdleTTL:   pkgconfig.EnvDurationDefault("ENGINE_IDLE_TTL", 30*time.Minute),
		SweepInterval:   pkgconfig.EnvDurationDefault("ENGINE_SWEEP_INTERVAL", time.Minute),
		CSRF:            pkgconfig.EnvDefault("CSRF_ENABLED", "true") == "true",
		CookieSecure:    pkgconfig.EnvDefault("COOKIE_SECURE", "false") == "true",
	}

	pkgconfig.MustNonEmpty(cfg.StoreAPIURL, "STORE_API_URL")
	pkgconfig.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	return cfg
}
