package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var envKeys = []string{
	"HTTP_PORT", "SERVICE_ID", "STORE_DRIVER", "POSTGRES_HOST", "POSTGRES_PORT", "LOCK_TIMEOUT_MS",
	"REDIS_ENABLED", "CACHE_TTL_SECONDS", "EVENT_BROKER", "CONSUL_ENABLED",
	"PLACE_ORDER_MAX_ATTEMPTS", "PLACE_ORDER_RETRY_BACKOFF_MS", "SHUTDOWN_TIMEOUT_SECONDS",
	"PRODUCT_SERVICE_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c := Load("order-service", 8082)

	assert.Equal(t, "order-service", c.ServiceName)
	assert.Equal(t, "order-service-1", c.ServiceID)
	assert.Equal(t, ":8082", c.HTTPAddr())
	assert.Equal(t, StorePostgres, c.StoreDriver)
	assert.Equal(t, 5*time.Second, c.LockTimeout)
	assert.True(t, c.RedisEnabled)
	assert.Equal(t, 5*time.Minute, c.CacheTTL)
	assert.Equal(t, BrokerRabbitMQ, c.EventBroker)
	assert.Equal(t, 3, c.PlaceOrderMaxAttempts)
	assert.Equal(t, 50*time.Millisecond, c.PlaceOrderRetryBackoff)
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.Equal(t, "http://product-service:8081", c.ProductServiceURL)
	assert.Equal(t,
		"host=localhost port=5432 user=minisys password=minisys123 dbname=minisys sslmode=disable",
		c.PostgresDSN())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("LOCK_TIMEOUT_MS", "250")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("EVENT_BROKER", "kafka")
	t.Setenv("PLACE_ORDER_MAX_ATTEMPTS", "5")
	t.Setenv("PRODUCT_SERVICE_URL", "http://products.local/")

	c := Load("crm-server", 8080)

	assert.Equal(t, 9000, c.HTTPPort)
	assert.Equal(t, StoreMemory, c.StoreDriver)
	assert.Equal(t, 250*time.Millisecond, c.LockTimeout)
	assert.False(t, c.RedisEnabled)
	assert.Equal(t, BrokerKafka, c.EventBroker)
	assert.Equal(t, 5, c.PlaceOrderMaxAttempts)
	assert.Equal(t, "http://products.local", c.ProductServiceURL)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "eighty")
	t.Setenv("REDIS_ENABLED", "maybe")

	c := Load("product-service", 8081)

	assert.Equal(t, 8081, c.HTTPPort)
	assert.True(t, c.RedisEnabled)
}
