package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()
	assert.Equal(t, "storeapi", cfg.ServiceName)
	assert.Equal(t, "storeapi.db", cfg.SQLitePath)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Minute, cfg.CartCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CART_CACHE_TTL", "30s")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.CartCacheTTL)
	assert.Equal(t, []byte("secret"), cfg.JWTAccessSecret)
}
