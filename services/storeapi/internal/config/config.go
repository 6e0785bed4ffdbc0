package config

import (
	"time"

	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	pkgconfig.Config

	DatabaseURL  string
	SQLitePath   string
	RedisAddr    string
	CartCacheTTL time.Duration
	KafkaBrokers []string
}

func Load() Config {
	base := pkgconfig.Load(".env")
	if base.ServiceName == "" {
		base.ServiceName = "storeapi"
	}

	cfg := Config{
		Config:       base,
		DatabaseURL:  pkgconfig.EnvDefault("DATABASE_URL", ""),
		SQLitePath:   pkgconfig.EnvDefault("SQLITE_PATH", "storeapi.db"),
		RedisAddr:    pkgconfig.EnvDefault("REDIS_ADDR", ""),
		CartCacheTTL: pkgconfig.EnvDurationDefault("CART_CACHE_TTL", 10*time.Minute),
		KafkaBrokers: pkgconfig.CSV(pkgconfig.EnvDefault("KAFKA_BROKERS", "")),
	}

	pkgconfig.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	return cfg
}
