package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// Драйверы хранилища каталога, заказов и учётных записей.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Драйверы хранилища корзин.
const (
	CartStoreMemory = "memory"
	CartStoreRedis  = "redis"
)

const (
	devSessionSecret = "storefront-dev-session-secret-32b"
	devJWTSecret     = "storefront-dev-jwt-secret"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	CartStore     string
	CartTTL       time.Duration
	CartSweep     time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionSecret  string
	SessionSecure  bool
	JWTSecret      string
	JWTTTL         time.Duration
	BcryptCost     int
	AllowedOrigins []string

	SeedDefaults         bool
	CheckoutRefreshStock bool
	RequestTimeout       time.Duration

	KafkaBrokers  []string
	KafkaClientID string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	OutboxMaxAge       time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		CartStore:           CartStoreMemory,
		CartTTL:             24 * time.Hour,
		CartSweep:           10 * time.Minute,
		RedisAddr:           "localhost:6379",
		SessionSecret:       devSessionSecret,
		JWTSecret:           devJWTSecret,
		JWTTTL:              24 * time.Hour,
		SeedDefaults:        true,
		RequestTimeout:      10 * time.Second,
		KafkaClientID:       "storefront",
		KafkaTopic:          kafka.TopicOrderEvents,
		KafkaDLQTopic:       kafka.TopicDeadLetterQueue,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		OutboxMaxAge:        5 * time.Minute,
	}
}

// LookupFunc совпадает по сигнатуре с os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadConfig накладывает переменные окружения STOREFRONT_* и KAFKA_BROKERS на DefaultConfig.
func LoadConfig(lookup LookupFunc) (Config, error) {
	cfg := DefaultConfig()
	env := envReader{lookup: lookup}

	env.str("STOREFRONT_HTTP_ADDR", &cfg.HTTPAddr)
	env.str("STOREFRONT_METRICS_ADDR", &cfg.MetricsAddr)
	env.str("STOREFRONT_STORAGE_DRIVER", &cfg.StorageDriver)
	env.str("STOREFRONT_POSTGRES_DSN", &cfg.PostgresDSN)
	env.boolean("STOREFRONT_POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)
	env.str("STOREFRONT_CART_STORE", &cfg.CartStore)
	env.duration("STOREFRONT_CART_TTL", &cfg.CartTTL)
	env.duration("STOREFRONT_CART_SWEEP_INTERVAL", &cfg.CartSweep)
	env.str("STOREFRONT_REDIS_ADDR", &cfg.RedisAddr)
	env.str("STOREFRONT_REDIS_PASSWORD", &cfg.RedisPassword)
	env.integer("STOREFRONT_REDIS_DB", &cfg.RedisDB)
	env.str("STOREFRONT_SESSION_SECRET", &cfg.SessionSecret)
	env.boolean("STOREFRONT_SESSION_SECURE", &cfg.SessionSecure)
	env.str("STOREFRONT_JWT_SECRET", &cfg.JWTSecret)
	env.duration("STOREFRONT_JWT_TTL", &cfg.JWTTTL)
	env.integer("STOREFRONT_BCRYPT_COST", &cfg.BcryptCost)
	env.list("STOREFRONT_CORS_ORIGINS", &cfg.AllowedOrigins)
	env.boolean("STOREFRONT_SEED_DEFAULTS", &cfg.SeedDefaults)
	env.boolean("STOREFRONT_CHECKOUT_REFRESH_STOCK", &cfg.CheckoutRefreshStock)
	env.duration("STOREFRONT_REQUEST_TIMEOUT", &cfg.RequestTimeout)
	env.list("KAFKA_BROKERS", &cfg.KafkaBrokers)
	env.str("STOREFRONT_KAFKA_CLIENT_ID", &cfg.KafkaClientID)
	env.str("STOREFRONT_KAFKA_TOPIC", &cfg.KafkaTopic)
	env.str("STOREFRONT_KAFKA_DLQ_TOPIC", &cfg.KafkaDLQTopic)
	env.duration("STOREFRONT_OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	env.integer("STOREFRONT_OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	env.integer("STOREFRONT_OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	env.duration("STOREFRONT_OUTBOX_RETRY_DELAY", &cfg.OutboxRetryDelay)
	env.duration("STOREFRONT_OUTBOX_MAX_AGE", &cfg.OutboxMaxAge)

	if err := errors.Join(env.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("STOREFRONT_POSTGRES_DSN is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	switch c.CartStore {
	case CartStoreMemory:
	case CartStoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("STOREFRONT_REDIS_ADDR is required for redis cart store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported cart store %q", c.CartStore))
	}

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("session secret is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.OutboxBatchSize <= 0 || c.OutboxMaxAttempts <= 0 {
		errs = append(errs, errors.New("outbox batch size and max attempts must be positive"))
	}
	return errors.Join(errs...)
}

// UsesDevSecrets сообщает, что секреты не переопределены.
func (c Config) UsesDevSecrets() bool {
	return c.SessionSecret == devSessionSecret || c.JWTSecret == devJWTSecret
}

type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (r *envReader) value(key string) (string, bool) {
	if r.lookup == nil {
		return "", false
	}
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.value(key); ok {
		*dst = v
	}
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = parsed
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = parsed
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = parsed
}

func (r *envReader) list(key string, dst *[]string) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}
