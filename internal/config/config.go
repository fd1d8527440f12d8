// Package config provides runtime configuration values for the CRM services.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
	BrokerNone     = "none"
)

type Config struct {
	ServiceName string
	ServiceID   string
	HTTPPort    int
	LogLevel    string

	StoreDriver      string
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	LockTimeout      time.Duration

	RedisEnabled bool
	RedisHost    string
	RedisPort    int
	CacheTTL     time.Duration

	EventBroker      string
	RabbitMQHost     string
	RabbitMQPort     int
	RabbitMQUser     string
	RabbitMQPassword string
	KafkaBrokers     string

	ConsulEnabled bool
	ConsulHost    string
	ConsulPort    int

	PlaceOrderMaxAttempts  int
	PlaceOrderRetryBackoff time.Duration
	ShutdownTimeout        time.Duration

	ProductServiceURL  string
	OrderServiceURL    string
	CustomerServiceURL string
	CRMBaseURL         string
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvms(key string, defMs int) time.Duration {
	return time.Duration(atoienv(key, defMs)) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

// Load collects configuration for the named service from the environment.
func Load(service string, defaultPort int) Config {
	port := atoienv("HTTP_PORT", defaultPort)
	return Config{
		ServiceName: service,
		ServiceID:   getenv("SERVICE_ID", fmt.Sprintf("%s-1", service)),
		HTTPPort:    port,
		LogLevel:    getenv("LOG_LEVEL", "info"),

		StoreDriver:      strings.ToLower(getenv("STORE_DRIVER", StorePostgres)),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     atoienv("POSTGRES_PORT", 5432),
		PostgresUser:     getenv("POSTGRES_USER", "minisys"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "minisys123"),
		PostgresDB:       getenv("POSTGRES_DB", "minisys"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		LockTimeout:      durenvms("LOCK_TIMEOUT_MS", 5000),

		RedisEnabled: boolenv("REDIS_ENABLED", true),
		RedisHost:    getenv("REDIS_HOST", "localhost"),
		RedisPort:    atoienv("REDIS_PORT", 6379),
		CacheTTL:     durenvs("CACHE_TTL_SECONDS", 300),

		EventBroker:      strings.ToLower(getenv("EVENT_BROKER", BrokerRabbitMQ)),
		RabbitMQHost:     getenv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     atoienv("RABBITMQ_PORT", 5672),
		RabbitMQUser:     getenv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getenv("RABBITMQ_PASSWORD", "guest"),
		KafkaBrokers:     getenv("KAFKA_BROKERS", "localhost:9092"),

		ConsulEnabled: boolenv("CONSUL_ENABLED", true),
		ConsulHost:    getenv("CONSUL_HOST", "localhost"),
		ConsulPort:    atoienv("CONSUL_PORT", 8500),

		PlaceOrderMaxAttempts:  atoienv("PLACE_ORDER_MAX_ATTEMPTS", 3),
		PlaceOrderRetryBackoff: durenvms("PLACE_ORDER_RETRY_BACKOFF_MS", 50),
		ShutdownTimeout:        durenvs("SHUTDOWN_TIMEOUT_SECONDS", 10),

		ProductServiceURL:  strings.TrimRight(getenv("PRODUCT_SERVICE_URL", "http://product-service:8081"), "/"),
		OrderServiceURL:    strings.TrimRight(getenv("ORDER_SERVICE_URL", "http://order-service:8082"), "/"),
		CustomerServiceURL: strings.TrimRight(getenv("CUSTOMER_SERVICE_URL", "http://customer-service:8083"), "/"),
		CRMBaseURL:         strings.TrimRight(getenv("CRM_BASE_URL", "http://localhost:8080"), "/"),
	}
}

// PostgresDSN returns a lib/pq keyword/value connection string.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
